package horntail

// Entry is the lazy tree navigator (§9 "lazy tree vs. cached tree"): it
// holds just enough to re-resolve and decode its own node on demand, and
// re-reads the underlying region on every call rather than memoizing
// anything. EntryCache (cache.go) wraps this with an LRU of resolved
// children when repeated traversal of the same subtree is expected.
type Entry struct {
	reader       *WZReader
	kind         EntryKind
	name         string
	offset       int
	parentOffset int
	tag          string
}

// Name returns the entry's decoded name. The root folder's name is empty.
func (e *Entry) Name() string { return e.name }

// Kind returns what this entry decodes to.
func (e *Entry) Kind() EntryKind { return e.kind }

// Children lists a Folder entry's direct children by re-parsing its
// directory listing. It returns ErrInvalidDataType for any non-Folder kind.
func (e *Entry) Children() ([]*Entry, error) {
	if e.kind != EntryKindFolder {
		return nil, wrapErr(KindInvalidDataType, "Children called on non-folder entry", nil)
	}
	b := e.reader.stream()
	if _, err := b.Seek(e.offset, SeekStart); err != nil {
		return nil, err
	}
	return readFolderEntries(b, e.reader, e.parentOffset)
}

// context builds the AccessorContext a typed decoder needs to resolve
// back-references rooted at this entry.
func (e *Entry) context() AccessorContext {
	return AccessorContext{Offset: e.offset, ParentOffset: e.parentOffset, VersionHash: e.reader.versionHash}
}

// streamAt returns a ByteStream positioned at this entry's own offset.
func (e *Entry) streamAt() (*ByteStream, error) {
	b := e.reader.stream()
	if _, err := b.Seek(e.offset, SeekStart); err != nil {
		return nil, err
	}
	return b, nil
}

// Properties decodes this entry as a Property node (either encoding) and
// returns its key/value list. Returns ErrInvalidDataType for any other
// kind.
func (e *Entry) Properties() ([]NamedProperty, error) {
	if e.kind != EntryKindProperty {
		return nil, wrapErr(KindInvalidDataType, "Properties called on non-property entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	if e.tag == plainTextTag {
		return decodePlainTextProperties(b)
	}
	return decodeEncodedProperties(b, e.reader.cipher, e)
}

// Canvas decodes this entry as a Canvas image. Returns ErrInvalidDataType
// for any other kind.
func (e *Entry) Canvas() (*Canvas, error) {
	if e.kind != EntryKindCanvas {
		return nil, wrapErr(KindInvalidDataType, "Canvas called on non-canvas entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeCanvas(b, e.reader.cipher, e)
}

// Video decodes this entry as an MCV0 video. Returns ErrInvalidDataType for
// any other kind.
func (e *Entry) Video() (*Video, error) {
	if e.kind != EntryKindVideo {
		return nil, wrapErr(KindInvalidDataType, "Video called on non-video entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeVideo(b, e)
}

// Sound decodes this entry as a sound node. Returns ErrInvalidDataType for
// any other kind.
func (e *Entry) Sound() (*Sound, error) {
	if e.kind != EntryKindSound {
		return nil, wrapErr(KindInvalidDataType, "Sound called on non-sound entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeSound(b, e)
}

// Vector2D decodes this entry as a 2D integer point.
func (e *Entry) Vector2D() (Vector2D, error) {
	if e.kind != EntryKindVector2D {
		return Vector2D{}, wrapErr(KindInvalidDataType, "Vector2D called on non-vector2d entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return Vector2D{}, err
	}
	return decodeVector2D(b)
}

// Convex2D decodes this entry as a polygon of nested Vector2D images.
func (e *Entry) Convex2D() ([]Vector2D, error) {
	if e.kind != EntryKindConvex2D {
		return nil, wrapErr(KindInvalidDataType, "Convex2D called on non-convex2d entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeConvex2D(b, e)
}

// UOL decodes this entry as an alias/link node.
func (e *Entry) UOL() (*UOL, error) {
	if e.kind != EntryKindUOL {
		return nil, wrapErr(KindInvalidDataType, "UOL called on non-uol entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeUOL(b, e.reader.cipher, e.parentOffset)
}

// RawData decodes this entry as an opaque binary blob, alongside its
// optional property list.
func (e *Entry) RawData() (*RawData, error) {
	if e.kind != EntryKindRawData {
		return nil, wrapErr(KindInvalidDataType, "RawData called on non-rawdata entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeRawData(b, e)
}

// Script decodes this entry's still-encrypted byte range; the caller is
// responsible for decrypting it with the container's cipher (§4.10).
func (e *Entry) Script() (*Script, error) {
	if e.kind != EntryKindScript {
		return nil, wrapErr(KindInvalidDataType, "Script called on non-script entry", nil)
	}
	b, err := e.streamAt()
	if err != nil {
		return nil, err
	}
	return decodeScript(b)
}

// descendAt resolves a nested image from within a Properties/Convex2D
// parse: it builds a child Entry positioned at bodyOffset (past the tag
// dispatchImageTag already consumed) whose back-reference base is
// imageStart, consistent with §4.10's "nested image" rule.
func (e *Entry) descendAt(kind EntryKind, tag string, bodyOffset, imageStart int) *Entry {
	return &Entry{reader: e.reader, kind: kind, offset: bodyOffset, parentOffset: imageStart, tag: tag}
}
