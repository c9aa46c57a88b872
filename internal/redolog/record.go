package redolog

// Record is one decoded mini-transaction record: the type tag, the
// (tablespace, page) it targets, the LSN it was assigned on emission,
// the byte length it occupied in the logical log stream (used for LSN
// accounting), and its body slice (into the reader's active parse
// buffer half — valid only until the next parse pass rotates buffers;
// the dispatcher must copy out what it needs to keep).
type Record struct {
	Type  Type
	Space uint32
	Page  uint32
	LSN   uint64
	Len   int
	Body  []byte
}
