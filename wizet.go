package horntail

// wzSignature is the fixed magic at the start of every WZ container
// ("PKG1" read as a little-endian u32), §4.6/§6.
const wzSignature uint32 = 0x31474B50

// WZReader is a Reader rooted at a single WZ container's data region
// (§3 "Reader (WZ)"). It owns the archive's Source and Cipher for its
// entire lifetime; derived Entry views reach both through a pointer to
// this reader.
type WZReader struct {
	source      *Source
	cipher      Cipher
	version     int
	versionHash uint32
	noVersion   bool
	dataStart   int
	dataSize    uint64
	headerSize  uint32
}

// Option configures the rarer knobs of OpenWZ/NewWZReader. The only one is
// whether the container carries no version field at all; the table
// cipher's IV is fixed by the Cipher the caller passes in.
type Option func(*wzOptions)

type wzOptions struct {
	noVersion bool
}

// WithNoVersion opens the container assuming it has no version field
// immediately past the header (§4.6).
func WithNoVersion() Option {
	return func(o *wzOptions) { o.noVersion = true }
}

// OpenWZ reads and validates a WZ container's fixed header from path,
// using cipher for any subsequent string/payload decryption and version
// as the expected client version. It opens the file through the package's
// afero.Fs indirection (see Open in source.go), so tests can substitute an
// in-memory filesystem.
func OpenWZ(path string, cipher Cipher, version int, opts ...Option) (*WZReader, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewWZReader(src, cipher, version, opts...)
	if err != nil {
		src.Close()
		return nil, err
	}
	return r, nil
}

// NewWZReader validates the header already present in src and returns a
// ready-to-use WZReader. The returned WZReader takes ownership of src:
// its Close closes src.
func NewWZReader(src *Source, cipher Cipher, version int, opts ...Option) (*WZReader, error) {
	var o wzOptions
	for _, opt := range opts {
		opt(&o)
	}
	if cipher == nil {
		cipher = NullCipher{}
	}

	data := src.Bytes()
	b := NewByteStream(data)

	sig, err := b.U32()
	if err != nil {
		return nil, err
	}
	if sig != wzSignature {
		return nil, wrapErr(KindBrokenFile, "bad wz signature", nil)
	}
	dataSize, err := b.U64()
	if err != nil {
		return nil, err
	}
	headerSize, err := b.U32()
	if err != nil {
		return nil, err
	}
	if uint64(len(data))-dataSize != uint64(headerSize) {
		return nil, wrapErr(KindBrokenFile, "header size invariant violated", nil)
	}

	// Copyright bytes fill [pos, headerSize-1) with a trailing zero; skip
	// over them without validating their content.
	if _, err := b.Seek(int(headerSize), SeekStart); err != nil {
		return nil, err
	}

	versionHash := VersionHash(version)
	dataStart := int(headerSize)
	if !o.noVersion {
		enc, err := b.U16()
		if err != nil {
			return nil, err
		}
		if enc != VersionHashEnc(version) {
			return nil, wrapErr(KindInvalidVersion, "version hash mismatch", nil)
		}
		dataStart += 2
	}

	return &WZReader{
		source:      src,
		cipher:      cipher,
		version:     version,
		versionHash: versionHash,
		noVersion:   o.noVersion,
		dataStart:   dataStart,
		dataSize:    dataSize,
		headerSize:  headerSize,
	}, nil
}

// Root returns the Entry for the container's implicit root folder. Its
// parentOffset is its own offset: the root folder is its own enclosing
// block for the purposes of offset obfuscation and back-reference
// resolution (§4.8).
func (r *WZReader) Root() *Entry {
	return &Entry{
		reader:       r,
		kind:         EntryKindFolder,
		offset:       r.dataStart,
		parentOffset: r.dataStart,
	}
}

// Close releases the underlying source.
func (r *WZReader) Close() error { return r.source.Close() }

func (r *WZReader) stream() *ByteStream { return NewByteStream(r.source.Bytes()) }
