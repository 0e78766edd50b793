package mscfb

type ObjectType int

const (
	ObjUnallocated ObjectType = iota
	ObjStorage
	ObjStream
	ObjLockBytes
	ObjProperty
	ObjRoot
)

func (o ObjectType) AsByte() byte {
	switch o {
	case ObjUnallocated:
		return OBJ_TYPE_UNALLOCATED
	case ObjStorage:
		return OBJ_TYPE_STORAGE
	case ObjStream:
		return OBJ_TYPE_STREAM
	case ObjLockBytes:
		return OBJ_TYPE_LOCK_BYTES
	case ObjProperty:
		return OBJ_TYPE_PROPERTY
	case ObjRoot:
		return OBJ_TYPE_ROOT
	default:
		return 0
	}
}

func ObjectFromByte(b byte) ObjectType {
	switch b {
	case OBJ_TYPE_UNALLOCATED:
		return ObjUnallocated
	case OBJ_TYPE_STORAGE:
		return ObjStorage
	case OBJ_TYPE_STREAM:
		return ObjStream
	case OBJ_TYPE_LOCK_BYTES:
		return ObjLockBytes
	case OBJ_TYPE_PROPERTY:
		return ObjProperty
	case OBJ_TYPE_ROOT:
		return ObjRoot
	default:
		return ObjUnallocated
	}
}

// IsContainer reports whether entries of this type may have children.
func (o ObjectType) IsContainer() bool {
	return o == ObjStorage || o == ObjRoot
}

func (o ObjectType) String() string {
	switch o {
	case ObjStorage:
		return "storage"
	case ObjStream:
		return "stream"
	case ObjLockBytes:
		return "lockbytes"
	case ObjProperty:
		return "property"
	case ObjRoot:
		return "root"
	default:
		return "empty"
	}
}
