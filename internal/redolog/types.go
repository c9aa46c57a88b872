package redolog

// Type is a redo log record type tag. Values and names are grounded on
// the teacher's redo_log_type.go MLOG_* constant table, which mirrors
// InnoDB's log0types.h.
type Type byte

// SingleRecFlag marks a mini-transaction record as the only record in
// its mini-transaction; it is stripped from the type byte before
// dispatch.
const SingleRecFlag Type = 128

const (
	Type1Byte                  Type = 1
	Type2Bytes                 Type = 2
	Type4Bytes                 Type = 4
	Type8Bytes                 Type = 8
	TypeRecInsert              Type = 9
	TypeRecClustDeleteMark     Type = 10
	TypeRecSecDeleteMark       Type = 11
	TypeRecUpdateInPlace       Type = 13
	TypeRecDelete              Type = 14
	TypeListEndDelete          Type = 15
	TypeListStartDelete        Type = 16
	TypeListEndCopyCreated     Type = 17
	TypePageReorganize         Type = 18
	TypePageCreate             Type = 19
	TypeUndoInsert             Type = 20
	TypeUndoEraseEnd           Type = 21
	TypeUndoInit               Type = 22
	TypeUndoHdrDiscard         Type = 23
	TypeUndoHdrReuse           Type = 24
	TypeUndoHdrCreate          Type = 25
	TypeRecMinMark             Type = 26
	TypeIBufBitmapInit         Type = 27
	TypeInitFilePage           Type = 29
	TypeWriteString            Type = 30
	TypeMultiRecEnd            Type = 31
	TypeDummyRecord            Type = 32
	TypeFileDelete             Type = 33
	TypeCompRecMinMark         Type = 34
	TypeCompPageCreate         Type = 35
	TypeCompRecInsert          Type = 36
	TypeCompRecClustDeleteMark Type = 37
	TypeCompRecSecDeleteMark   Type = 38
	TypeCompRecUpdateInPlace   Type = 39
	TypeCompRecDelete          Type = 40
	TypeCompListEndDelete      Type = 41
	TypeCompListStartDelete    Type = 42
	TypeCompListEndCopyCreated Type = 43
	TypeCompPageReorganize     Type = 44
	TypeFileCreate             Type = 45
	TypeZipWriteNodePtr        Type = 46
	TypeZipWriteBlobPtr        Type = 47
	TypeZipWriteHeader         Type = 48
	TypeZipPageCompress        Type = 49
	TypeFileRename2            Type = 50
	TypeFileCreate2            Type = 51
	TypeZipPageCompressNoData Type = 52
	TypeFileName               Type = 53
	TypeCheckpoint             Type = 54
	TypePageCreateRTree        Type = 55
	TypeCompPageCreateRTree    Type = 56
	TypeInitFilePage2          Type = 57
	TypeTruncate               Type = 58
	TypeFileWriteCryptData     Type = 59
	TypeIndexLoad              Type = 60
)

// fixedLengthBodies holds the body length (excluding the 1-byte type
// tag) for the three length-fixed types named in spec.md §3: the
// space/page-id prefix is not present on these, only the type byte plus
// this many body bytes.
var fixedLengthBodies = map[Type]int{
	TypeMultiRecEnd: 0,
	TypeDummyRecord: 0,
	TypeCheckpoint:  9,
}

// IsFixedLength reports whether t is one of the three length-fixed
// record types that skip the tablespace-id/page-id prefix entirely.
func IsFixedLength(t Type) (bodyLen int, ok bool) {
	n, ok := fixedLengthBodies[t]
	return n, ok
}

// typeNames is used only for diagnostic logging.
var typeNames = map[Type]string{
	Type1Byte: "1BYTE", Type2Bytes: "2BYTES", Type4Bytes: "4BYTES", Type8Bytes: "8BYTES",
	TypeRecInsert: "REC_INSERT", TypeRecClustDeleteMark: "REC_CLUST_DELETE_MARK",
	TypeRecSecDeleteMark: "REC_SEC_DELETE_MARK", TypeRecUpdateInPlace: "REC_UPDATE_IN_PLACE",
	TypeRecDelete: "REC_DELETE", TypeListEndDelete: "LIST_END_DELETE",
	TypeListStartDelete: "LIST_START_DELETE", TypeListEndCopyCreated: "LIST_END_COPY_CREATED",
	TypePageReorganize: "PAGE_REORGANIZE", TypePageCreate: "PAGE_CREATE",
	TypeUndoInsert: "UNDO_INSERT", TypeUndoEraseEnd: "UNDO_ERASE_END", TypeUndoInit: "UNDO_INIT",
	TypeUndoHdrDiscard: "UNDO_HDR_DISCARD", TypeUndoHdrReuse: "UNDO_HDR_REUSE",
	TypeUndoHdrCreate: "UNDO_HDR_CREATE", TypeRecMinMark: "REC_MIN_MARK",
	TypeIBufBitmapInit: "IBUF_BITMAP_INIT", TypeInitFilePage: "INIT_FILE_PAGE",
	TypeWriteString: "WRITE_STRING", TypeMultiRecEnd: "MULTI_REC_END",
	TypeDummyRecord: "DUMMY_RECORD", TypeFileDelete: "FILE_DELETE",
	TypeCompRecMinMark: "COMP_REC_MIN_MARK", TypeCompPageCreate: "COMP_PAGE_CREATE",
	TypeCompRecInsert: "COMP_REC_INSERT", TypeCompRecClustDeleteMark: "COMP_REC_CLUST_DELETE_MARK",
	TypeCompRecSecDeleteMark: "COMP_REC_SEC_DELETE_MARK", TypeCompRecUpdateInPlace: "COMP_REC_UPDATE_IN_PLACE",
	TypeCompRecDelete: "COMP_REC_DELETE", TypeCompListEndDelete: "COMP_LIST_END_DELETE",
	TypeCompListStartDelete: "COMP_LIST_START_DELETE", TypeCompListEndCopyCreated: "COMP_LIST_END_COPY_CREATED",
	TypeCompPageReorganize: "COMP_PAGE_REORGANIZE", TypeFileCreate: "FILE_CREATE",
	TypeZipWriteNodePtr: "ZIP_WRITE_NODE_PTR", TypeZipWriteBlobPtr: "ZIP_WRITE_BLOB_PTR",
	TypeZipWriteHeader: "ZIP_WRITE_HEADER", TypeZipPageCompress: "ZIP_PAGE_COMPRESS",
	TypeFileRename2: "FILE_RENAME2", TypeFileCreate2: "FILE_CREATE2",
	TypeZipPageCompressNoData: "ZIP_PAGE_COMPRESS_NO_DATA", TypeFileName: "FILE_NAME",
	TypeCheckpoint: "CHECKPOINT", TypePageCreateRTree: "PAGE_CREATE_RTREE",
	TypeCompPageCreateRTree: "COMP_PAGE_CREATE_RTREE", TypeInitFilePage2: "INIT_FILE_PAGE2",
	TypeTruncate: "TRUNCATE", TypeFileWriteCryptData: "FILE_WRITE_CRYPT_DATA",
	TypeIndexLoad: "INDEX_LOAD",
}

// String renders a diagnostic name for unknown-type logging.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}
