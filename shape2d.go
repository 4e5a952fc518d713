package horntail

// decodeVector2D reads a Vector2D image: two variable-length integers
// (§4.10).
func decodeVector2D(b *ByteStream) (Vector2D, error) {
	x, err := b.VarInt32()
	if err != nil {
		return Vector2D{}, err
	}
	y, err := b.VarInt32()
	if err != nil {
		return Vector2D{}, err
	}
	return Vector2D{X: x, Y: y}, nil
}

// decodeConvex2D reads a Convex2D image: a variable-length count followed
// by that many nested Vector2D-typed images (§4.10).
func decodeConvex2D(b *ByteStream, e *Entry) ([]Vector2D, error) {
	n, err := b.VarInt32()
	if err != nil {
		return nil, err
	}
	points := make([]Vector2D, 0, n)
	for i := int32(0); i < n; i++ {
		imageStart := b.Pos()
		kind, tag, bodyOffset, err := dispatchImageTag(b, e.reader.cipher, imageStart)
		if err != nil {
			return nil, err
		}
		if kind != EntryKindVector2D {
			return nil, wrapErr(KindUnexpectedData, "convex2d element is not a Vector2D image", nil)
		}
		child := e.descendAt(kind, tag, bodyOffset, imageStart)
		v, err := child.Vector2D()
		if err != nil {
			return nil, err
		}
		points = append(points, v)
	}
	return points, nil
}
