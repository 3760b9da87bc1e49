package graph

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// relationTags implements spec §6's relation-tag table.
var relationTags = map[Relation]byte{
	IsA:           0x01,
	IsPartOf:      0x02,
	Causes:        0x03,
	SimilarTo:     0x04,
	Contradicts:   0x05,
	HappenedAfter: 0x06,
	BelongsTo:     0x07,
}

var tagRelations = func() map[byte]Relation {
	m := make(map[byte]Relation, len(relationTags))
	for r, t := range relationTags {
		m[t] = r
	}
	return m
}()

const customRelationTag = 0xFF

// encodeRelationTag renders a relation as its on-disk byte sequence: a
// single tag byte for the seven built-ins, or 0xFF followed by a
// length-prefixed UTF-8 name for Custom relations.
func encodeRelationTag(r Relation) []byte {
	if tag, ok := relationTags[r]; ok {
		return []byte{tag}
	}
	name := []byte(string(r))
	buf := make([]byte, 0, 2+len(name))
	buf = append(buf, customRelationTag)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(name)))
	buf = append(buf, name...)
	return buf
}

// decodeRelationTag reads a relation tag from buf, returning the relation
// and the number of bytes consumed.
func decodeRelationTag(buf []byte) (Relation, int, error) {
	if len(buf) == 0 {
		return "", 0, fmt.Errorf("empty relation tag")
	}
	tag := buf[0]
	if tag != customRelationTag {
		r, ok := tagRelations[tag]
		if !ok {
			return "", 0, fmt.Errorf("unknown relation tag 0x%02x", tag)
		}
		return r, 1, nil
	}
	if len(buf) < 3 {
		return "", 0, fmt.Errorf("truncated custom relation tag")
	}
	n := int(binary.BigEndian.Uint16(buf[1:3]))
	if len(buf) < 3+n {
		return "", 0, fmt.Errorf("truncated custom relation name")
	}
	name := string(buf[3 : 3+n])
	return CustomRelation(name), 3 + n, nil
}

// nodeKey is the `nodes` CF key: the raw 16-byte node id.
func nodeKey(id ID) []byte {
	b := id
	return b[:]
}

// edgeKey is the `edges` CF key: source_id || target_id || relation_tag.
func edgeKey(k EdgeKey) []byte {
	buf := make([]byte, 0, 32+3)
	buf = append(buf, k.Source[:]...)
	buf = append(buf, k.Target[:]...)
	buf = append(buf, encodeRelationTag(k.Relation)...)
	return buf
}

// edgesOutKey is the `edges_out` index key: source_id || relation_tag || target_id.
// Unlike the documented index-only layout, both adjacency rows carry the
// full encoded edge as their value, so Neighbors can return edges from a
// single prefix scan without a second read against `edges`.
func edgesOutKey(k EdgeKey) []byte {
	tag := encodeRelationTag(k.Relation)
	buf := make([]byte, 0, 16+len(tag)+16)
	buf = append(buf, k.Source[:]...)
	buf = append(buf, tag...)
	buf = append(buf, k.Target[:]...)
	return buf
}

// edgesInKey is the `edges_in` index key: target_id || relation_tag || source_id.
func edgesInKey(k EdgeKey) []byte {
	tag := encodeRelationTag(k.Relation)
	buf := make([]byte, 0, 16+len(tag)+16)
	buf = append(buf, k.Target[:]...)
	buf = append(buf, tag...)
	buf = append(buf, k.Source[:]...)
	return buf
}

// decodeEdgesOutKey parses a source_id-prefixed adjacency-index key back
// into (relation, neighbour id).
func decodeEdgesOutKey(anchor ID, buf []byte) (Relation, ID, error) {
	if len(buf) < 16 || !bytes.Equal(buf[:16], anchor[:]) {
		return "", ID{}, fmt.Errorf("adjacency key does not match anchor")
	}
	rel, n, err := decodeRelationTag(buf[16:])
	if err != nil {
		return "", ID{}, err
	}
	rest := buf[16+n:]
	if len(rest) != 16 {
		return "", ID{}, fmt.Errorf("malformed adjacency key")
	}
	var other ID
	copy(other[:], rest)
	return rel, other, nil
}

const nodeEncodingVersion = 1

// encodeNode renders a Node in the §6 binary frame: version byte, then
// length-prefixed content, node type, optional embedding, meta fields,
// and a JSON tail for the free-form attribute bag.
func encodeNode(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(nodeEncodingVersion)
	writeString(&buf, n.Content)
	writeString(&buf, string(n.NodeType))
	writeFloat32Slice(&buf, n.Embedding)
	writeTime(&buf, n.Meta.CreatedAt)
	writeTime(&buf, n.Meta.UpdatedAt)
	writeOptionalTime(&buf, n.Meta.AccessedAt)
	writeFloat64(&buf, n.Meta.AccessScore)
	writeFloat64(&buf, n.Meta.Confidence)
	writeString(&buf, n.Meta.Source)
	writeOptionalID(&buf, n.Meta.DocumentID)
	writeOptionalInt(&buf, n.Meta.ChunkIndex)
	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}
	writeBytes(&buf, attrs)
	return buf.Bytes(), nil
}

func decodeNode(id ID, data []byte) (*Node, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("truncated node record")
	}
	if version != nodeEncodingVersion {
		return nil, fmt.Errorf("unsupported node encoding version %d", version)
	}
	n := &Node{ID: id}
	if n.Content, err = readString(r); err != nil {
		return nil, err
	}
	nt, err := readString(r)
	if err != nil {
		return nil, err
	}
	n.NodeType = NodeType(nt)
	if n.Embedding, err = readFloat32Slice(r); err != nil {
		return nil, err
	}
	if n.Meta.CreatedAt, err = readTime(r); err != nil {
		return nil, err
	}
	if n.Meta.UpdatedAt, err = readTime(r); err != nil {
		return nil, err
	}
	if n.Meta.AccessedAt, err = readOptionalTime(r); err != nil {
		return nil, err
	}
	if n.Meta.AccessScore, err = readFloat64(r); err != nil {
		return nil, err
	}
	if n.Meta.Confidence, err = readFloat64(r); err != nil {
		return nil, err
	}
	if n.Meta.Source, err = readString(r); err != nil {
		return nil, err
	}
	if n.Meta.DocumentID, err = readOptionalID(r); err != nil {
		return nil, err
	}
	if n.Meta.ChunkIndex, err = readOptionalInt(r); err != nil {
		return nil, err
	}
	attrs, err := readBytes(r)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	return n, nil
}

func encodeEdge(e *Edge) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(nodeEncodingVersion)
	writeFloat32(&buf, e.Weight)
	writeFloat32Slice(&buf, e.Vector)
	writeTime(&buf, e.CreatedAt)
	if e.Expired {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeOptionalID(&buf, e.ReplacedBy)
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal edge attributes: %w", err)
	}
	writeBytes(&buf, attrs)
	return buf.Bytes(), nil
}

func decodeEdge(key EdgeKey, data []byte) (*Edge, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("truncated edge record")
	}
	if version != nodeEncodingVersion {
		return nil, fmt.Errorf("unsupported edge encoding version %d", version)
	}
	e := &Edge{EdgeKey: key}
	if e.Weight, err = readFloat32(r); err != nil {
		return nil, err
	}
	if e.Vector, err = readFloat32Slice(r); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = readTime(r); err != nil {
		return nil, err
	}
	expired, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	e.Expired = expired == 1
	if e.ReplacedBy, err = readOptionalID(r); err != nil {
		return nil, err
	}
	attrs, err := readBytes(r)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal edge attributes: %w", err)
		}
	}
	return e, nil
}

// --- small binary primitives shared by the node/edge codecs ---

func writeBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return nil, fmt.Errorf("read bytes: %w", err)
	}
	return b, nil
}

func writeString(buf *bytes.Buffer, s string) { writeBytes(buf, []byte(s)) }

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeFloat32(buf *bytes.Buffer, v float32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	buf.Write(b[:])
}

func readFloat32(r *bytes.Reader) (float32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b[:])), nil
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func readFloat64(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

func writeFloat32Slice(buf *bytes.Buffer, v []float32) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
	buf.Write(lenBuf[:])
	for _, f := range v {
		writeFloat32(buf, f)
	}
}

func readFloat32Slice(r *bytes.Reader) ([]float32, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, nil
	}
	out := make([]float32, n)
	for i := range out {
		f, err := readFloat32(r)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func writeTime(buf *bytes.Buffer, t time.Time) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(t.UnixNano()))
	buf.Write(b[:])
}

func readTime(r *bytes.Reader) (time.Time, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(b[:]))).UTC(), nil
}

func writeOptionalTime(buf *bytes.Buffer, t *time.Time) {
	if t == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeTime(buf, *t)
}

func readOptionalTime(r *bytes.Reader) (*time.Time, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	t, err := readTime(r)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeOptionalID(buf *bytes.Buffer, id *ID) {
	if id == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	buf.Write(id[:])
}

func readOptionalID(r *bytes.Reader) (*ID, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	var id ID
	if _, err := r.Read(id[:]); err != nil {
		return nil, err
	}
	return &id, nil
}

func writeOptionalInt(buf *bytes.Buffer, v *int) {
	if v == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(int64(*v)))
	buf.Write(b[:])
}

func readOptionalInt(r *bytes.Reader) (*int, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return nil, err
	}
	v := int(int64(binary.BigEndian.Uint64(b[:])))
	return &v, nil
}

// AccessEvent is one recorded touch in the access_log column family
// (spec §6: key = node_id || timestamp, value = event record).
type AccessEvent struct {
	NodeID ID        `json:"-"`
	At     time.Time `json:"-"`
	Boost  float64   `json:"boost"`
	Score  float64   `json:"score"`
}

// accessLogKey is the `access_log` CF key: node_id || big-endian
// nanosecond timestamp, so a prefix scan by node id yields that node's
// events in time order.
func accessLogKey(id ID, at time.Time) []byte {
	buf := make([]byte, 16+8)
	copy(buf, id[:])
	binary.BigEndian.PutUint64(buf[16:], uint64(at.UnixNano()))
	return buf
}

func encodeAccessEvent(boost, score float64) ([]byte, error) {
	return json.Marshal(AccessEvent{Boost: boost, Score: score})
}

func decodeAccessEvent(key, value []byte) (AccessEvent, error) {
	if len(key) != 24 {
		return AccessEvent{}, fmt.Errorf("malformed access log key")
	}
	var ev AccessEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return AccessEvent{}, err
	}
	copy(ev.NodeID[:], key[:16])
	ev.At = time.Unix(0, int64(binary.BigEndian.Uint64(key[16:])))
	return ev, nil
}
