// Package horntail decodes the proprietary archive format used to
// distribute a massively multiplayer online game's client assets: the
// versioned directory archive ("WZ") and the newer pack-file container
// ("MS"). Both wrap an encrypted, self-describing tree of folders,
// structured property trees, bitmap canvases, video frames, sound, 2D
// geometry, alias nodes, scripts, and raw binary blobs.
//
// This package is the decoder core: the stream ciphers, the offset-
// obfuscation scheme, the string-decryption protocol, the directory and
// property walker, and the pack-file cryptographic envelope. It does not
// render anything, decode pixel data to RGBA, parse CLI arguments, or
// assemble multi-file bundles from an adjacent .ini index — those are left
// to external callers.
package horntail

// EntryKind identifies what a directory or image node decodes to.
type EntryKind int

const (
	EntryKindFolder EntryKind = iota
	EntryKindProperty
	EntryKindCanvas
	EntryKindVideo
	EntryKindConvex2D
	EntryKindVector2D
	EntryKindUOL
	EntryKindSound
	EntryKindRawData
	EntryKindScript
)

func (k EntryKind) String() string {
	switch k {
	case EntryKindFolder:
		return "Folder"
	case EntryKindProperty:
		return "Property"
	case EntryKindCanvas:
		return "Canvas"
	case EntryKindVideo:
		return "Video"
	case EntryKindConvex2D:
		return "Convex2D"
	case EntryKindVector2D:
		return "Vector2D"
	case EntryKindUOL:
		return "UOL"
	case EntryKindSound:
		return "Sound"
	case EntryKindRawData:
		return "RawData"
	case EntryKindScript:
		return "Script"
	default:
		return "Unknown"
	}
}

// PropertyKind distinguishes the two Property encodings: the binary,
// tag-prefixed form, and the plain-text "identifier = value" grammar
// reachable via the 0x23+"Property" fallback in the image dispatcher.
type PropertyKind int

const (
	PropertyKindEncoded PropertyKind = iota
	PropertyKindPlainText
)

// PrimitiveKind is the tag of a Primitive property value.
type PrimitiveKind int

const (
	PrimitiveNil PrimitiveKind = iota
	PrimitiveInt16
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveFloat32
	PrimitiveFloat64
	PrimitiveString
	PrimitiveImage
)

// Primitive is a tagged union property value (§3).
type Primitive struct {
	Kind  PrimitiveKind
	Int   int64
	Float float64
	Str   string
	Image *Entry
}

// Vector2D is a pair of variable-length-encoded integers (§4.10).
type Vector2D struct {
	X, Y int32
}

// AccessorContext is the scalar carried through every decode operation:
// the current stream position's frame of reference (§3).
type AccessorContext struct {
	Offset       int
	ParentOffset int
	VersionHash  uint32
}
