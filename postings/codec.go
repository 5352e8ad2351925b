package postings

import (
	"encoding/binary"

	"github.com/lalinsky/ngramidx/bitio"
	"github.com/lalinsky/ngramidx/golomb"
	"github.com/pkg/errors"
)

// Mode selects the wire encoding used by Encode/Decode (C6 in
// spec.md §4.6). The same mode must be used for encode and decode of
// a given store, per spec.md §6's environment-flag contract.
type Mode int

const (
	// Raw stores (doc_id, positions_count, positions...) triples
	// with no compression.
	Raw Mode = iota
	// Golomb gap-codes doc ids and, per posting, positions.
	Golomb
)

// ErrDecodeCorrupt is returned when a blob is truncated or its
// embedded docs_count disagrees with the number of entries actually
// decoded, per spec.md §4.6 and §7.
var ErrDecodeCorrupt = errors.New("postings: corrupt posting list")

// ErrEncodeOverflow is returned when a document id, position, or
// count would not survive the wire format's int32 fields intact.
// spec.md's original C source trusted its caller to avoid this;
// SPEC_FULL makes the check explicit (see SPEC_FULL.md's supplemented
// features).
var ErrEncodeOverflow = errors.New("postings: value exceeds int32 wire field")

const maxInt32 = 1<<31 - 1

// EstimateEncodedSize returns an upper-bound byte-size estimate for
// encoding list in the given mode, used to pre-size the output buffer
// the way the teacher's segment writer pre-sizes its block buffers.
// It is deliberately conservative for Golomb mode: gap coding never
// produces more bytes than the raw layout it estimates against.
func EstimateEncodedSize(list List, mode Mode) int {
	size := 4 // docs_count
	if mode == Golomb && len(list) > 0 {
		size += 4 // m_doc
	}
	for _, p := range list {
		size += 4 // doc_id
		size += 4 // positions_count
		if mode == Golomb && len(p.Positions) > 0 {
			size += 4 // m_pos
		}
		size += 4 * len(p.Positions)
	}
	return size
}

// Encode serializes list to its wire form. docsCount is the
// caller-supplied entry count (equal to len(list) for a well-formed
// list); totalDocuments is the corpus-wide document count used to
// derive m_doc in Golomb mode and is ignored in Raw mode.
func Encode(list List, mode Mode, docsCount int, totalDocuments int) ([]byte, error) {
	if err := validateOverflow(list, docsCount); err != nil {
		return nil, err
	}

	switch mode {
	case Raw:
		return encodeRaw(list)
	case Golomb:
		return encodeGolomb(list, docsCount, totalDocuments)
	default:
		return nil, errors.Errorf("postings: unknown mode %d", mode)
	}
}

// Decode parses blob back into a List. docsCount is the header value
// the caller stored alongside the blob (spec.md keeps it out-of-band
// for Raw mode; Golomb mode also embeds it and Decode cross-checks
// the two agree).
func Decode(blob []byte, mode Mode, docsCount int) (List, error) {
	switch mode {
	case Raw:
		return decodeRaw(blob, docsCount)
	case Golomb:
		return decodeGolomb(blob, docsCount)
	default:
		return nil, errors.Errorf("postings: unknown mode %d", mode)
	}
}

func validateOverflow(list List, docsCount int) error {
	if docsCount > maxInt32 || docsCount < 0 {
		return ErrEncodeOverflow
	}
	for _, p := range list {
		if p.DocID > maxInt32 {
			return ErrEncodeOverflow
		}
		if len(p.Positions) > maxInt32 {
			return ErrEncodeOverflow
		}
		for _, pos := range p.Positions {
			if pos > maxInt32 {
				return ErrEncodeOverflow
			}
		}
	}
	return nil
}

func putInt32(buf *bitio.Buffer, v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	buf.AppendBytes(tmp[:])
}

func readInt32(r *bitio.Reader) (int32, error) {
	r.AlignByte()
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, errors.Wrap(ErrDecodeCorrupt, "reading int32 header")
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func encodeRaw(list List) ([]byte, error) {
	buf := bitio.NewBuffer(EstimateEncodedSize(list, Raw))
	for _, p := range list {
		putInt32(buf, int32(p.DocID))
		putInt32(buf, int32(len(p.Positions)))
		for _, pos := range p.Positions {
			putInt32(buf, int32(pos))
		}
	}
	buf.Flush()
	return buf.Bytes(), nil
}

func decodeRaw(blob []byte, expectedDocsCount int) (List, error) {
	r := bitio.NewReader(blob)
	var out List
	for r.Remaining() {
		docID, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		count, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, errors.Wrap(ErrDecodeCorrupt, "negative positions_count")
		}
		positions := make([]uint32, count)
		for i := range positions {
			pos, err := readInt32(r)
			if err != nil {
				return nil, err
			}
			positions[i] = uint32(pos)
		}
		out = append(out, Posting{DocID: uint32(docID), Positions: positions})
	}
	if len(out) != expectedDocsCount {
		return nil, errors.Wrapf(ErrDecodeCorrupt, "header docs_count=%d but blob contains %d entries", expectedDocsCount, len(out))
	}
	return out, nil
}

func encodeGolomb(list List, docsCount int, totalDocuments int) ([]byte, error) {
	buf := bitio.NewBuffer(EstimateEncodedSize(list, Golomb))
	putInt32(buf, int32(docsCount))

	if docsCount > 0 {
		mDoc := totalDocuments / docsCount
		if mDoc < 1 {
			mDoc = 1
		}
		putInt32(buf, int32(mDoc))

		p := golomb.NewParams(uint32(mDoc))
		var prevDocID uint32 // doc_id[-1] = 0, so the first gap is doc_id[0]-0-1
		for _, posting := range list {
			gap := posting.DocID - prevDocID - 1
			p.Encode(buf, gap)
			prevDocID = posting.DocID
		}
		buf.Flush()
	}

	for _, posting := range list {
		positionsCount := len(posting.Positions)
		putInt32(buf, int32(positionsCount))
		if positionsCount == 0 {
			continue
		}

		lastPosition := posting.Positions[positionsCount-1]
		mPos := (int(lastPosition) + 1) / positionsCount
		if mPos < 1 {
			mPos = 1
		}
		putInt32(buf, int32(mPos))

		p := golomb.NewParams(uint32(mPos))
		var prevPos int64 = -1 // pos[-1] = -1
		for _, pos := range posting.Positions {
			gap := uint32(int64(pos) - prevPos - 1)
			p.Encode(buf, gap)
			prevPos = int64(pos)
		}
		buf.Flush()
	}

	return buf.Bytes(), nil
}

func decodeGolomb(blob []byte, expectedDocsCount int) (List, error) {
	r := bitio.NewReader(blob)

	docsCount32, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	docsCount := int(docsCount32)
	if docsCount < 0 {
		return nil, errors.Wrap(ErrDecodeCorrupt, "negative docs_count")
	}
	if docsCount != expectedDocsCount {
		return nil, errors.Wrapf(ErrDecodeCorrupt, "header docs_count=%d but blob embeds %d", expectedDocsCount, docsCount)
	}

	docIDs := make([]uint32, docsCount)
	if docsCount > 0 {
		mDoc32, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		if mDoc32 < 1 {
			return nil, errors.Wrap(ErrDecodeCorrupt, "invalid m_doc")
		}
		p := golomb.NewParams(uint32(mDoc32))

		var prevDocID uint32 // doc_id[-1] = 0
		for i := 0; i < docsCount; i++ {
			gap, err := p.Decode(r)
			if err != nil {
				return nil, errors.Wrap(ErrDecodeCorrupt, "decoding doc id gap")
			}
			docIDs[i] = prevDocID + gap + 1
			prevDocID = docIDs[i]
		}
		r.AlignByte()
	}

	out := make(List, 0, docsCount)
	for i := 0; i < docsCount; i++ {
		positionsCount32, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		positionsCount := int(positionsCount32)
		if positionsCount < 0 {
			return nil, errors.Wrap(ErrDecodeCorrupt, "negative positions_count")
		}

		positions := make([]uint32, positionsCount)
		if positionsCount > 0 {
			mPos32, err := readInt32(r)
			if err != nil {
				return nil, err
			}
			if mPos32 < 1 {
				return nil, errors.Wrap(ErrDecodeCorrupt, "invalid m_pos")
			}
			p := golomb.NewParams(uint32(mPos32))

			var prevPos int64 = -1
			for j := 0; j < positionsCount; j++ {
				gap, err := p.Decode(r)
				if err != nil {
					// spec.md §7 scenario 5: a truncated code aborts
					// the whole decode with ErrDecodeCorrupt.
					return nil, errors.Wrap(ErrDecodeCorrupt, "decoding position gap")
				}
				pos := prevPos + 1 + int64(gap)
				positions[j] = uint32(pos)
				prevPos = pos
			}
			r.AlignByte()
		}

		out = append(out, Posting{DocID: docIDs[i], Positions: positions})
	}

	return out, nil
}
