package dat

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Category identifies one of the image table kinds a DAT container carries.
type Category int

// Known categories.
const (
	CategorySettlers Category = iota
	CategoryTorsos
	CategoryShadows
	CategoryLandscape
	CategoryGui
	CategoryAnimation
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySettlers:
		return "settlers"
	case CategoryTorsos:
		return "torsos"
	case CategoryShadows:
		return "shadows"
	case CategoryLandscape:
		return "landscape"
	case CategoryGui:
		return "gui"
	case CategoryAnimation:
		return "animation"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// sequenceTypeCount is the number of index table slots in the file header.
const sequenceTypeCount = 8

// Category tags as stored on disk. NONE and PALETTE slots are skipped
// without populating a table.
const (
	idNone          = 0x1904
	idPalette       = 0x2607
	idSettlers      = 0x106
	idTorsos        = 0x3112
	idLandscape     = 0x2412
	idShadows       = 0x5982
	idGuis          = 0x11306
	idAnimationInfo = 0x21702
)

// Every DAT file starts with this byte sequence.
var fileStart1 = []byte{
	0x04, 0x13, 0x04, 0x00, 0x0c, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x54, 0x00, 0x00, 0x00,
	0x20, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
	0x00,
}

// fileStart2 follows the pixel-format magic.
var fileStart2 = []byte{
	0x00, 0x00, 0x1f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

var fileHeaderEnd = []byte{
	0x04, 0x19, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// sequenceStart prefixes every per-sequence frame table.
var sequenceStart = []byte{0x02, 0x14, 0x00, 0x00, 0x08, 0x00, 0x00}

// Options controls how a container is opened.
type Options struct {
	// OverrideDifferences right-aligns torso and shadow tables that are
	// shorter than the settler table, so overlay index k matches settler
	// index k for the trailing part of the table.
	OverrideDifferences bool

	// Logger receives non-fatal parse diagnostics. Defaults to a no-op
	// logger.
	Logger *zap.Logger

	// Translator overrides, one per image category. Nil fields use the
	// built-in translators.
	Settler   Translator
	Torso     Translator
	Shadow    Translator
	Landscape Translator
	Gui       Translator
}

// Reader is an opened DAT container. It parses the table directory eagerly
// and materializes individual images and sequences on demand. A Reader is
// safe for concurrent use; a single mutex serializes cursor access and
// cache insertion, so every slot is decoded at most once.
type Reader struct {
	mu   sync.Mutex
	file *os.File
	r    *ByteReader
	path string
	typ  DatFileType
	size int64
	log  *zap.Logger

	settlerStarts   []int64
	torsoStarts     []int64 // -1 marks an absent entry after alignment
	shadowStarts    []int64
	landscapeStarts []int64
	guiStarts       []int64
	animationStarts []int64

	settlerSequences []*Sequence
	landscapeImages  []*Image
	guiImages        []*Image
	animations       [][]AnimationFrame

	settlerTranslator   Translator
	torsoTranslator     Translator
	shadowTranslator    Translator
	landscapeTranslator Translator
	guiTranslator       Translator
}

// Open opens a DAT container for reading and parses its table directory.
// Literal or length mismatches in the file header are fatal; a slot whose
// index table fails to parse is logged and left empty.
func Open(path string, typ DatFileType, opts Options) (*Reader, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	d := &Reader{
		file: file,
		r:    NewByteReader(file),
		path: path,
		typ:  typ,
		size: stat.Size(),
		log:  log,

		settlerTranslator:   orDefault(opts.Settler, SettlerTranslator{}),
		torsoTranslator:     orDefault(opts.Torso, TorsoTranslator{}),
		shadowTranslator:    orDefault(opts.Shadow, ShadowTranslator{}),
		landscapeTranslator: orDefault(opts.Landscape, LandscapeTranslator{}),
		guiTranslator:       orDefault(opts.Gui, GuiTranslator{}),
	}

	if err := d.init(opts.OverrideDifferences); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return d, nil
}

func orDefault(t Translator, fallback Translator) Translator {
	if t == nil {
		return fallback
	}
	return t
}

// Close closes the underlying file.
func (d *Reader) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// Path returns the file path the container was opened from.
func (d *Reader) Path() string { return d.path }

// Type returns the pixel layout the container was opened with.
func (d *Reader) Type() DatFileType { return d.typ }

// Size returns the container's byte length.
func (d *Reader) Size() int64 { return d.size }

func (d *Reader) init(overrideDifferences bool) error {
	starts, err := d.readSequenceIndexStarts()
	if err != nil {
		return err
	}

	for i := 0; i < sequenceTypeCount; i++ {
		if err := d.readSequencesAt(starts[i]); err != nil {
			d.log.Warn("skipping unreadable index table",
				zap.Int("slot", i),
				zap.Int64("offset", starts[i]),
				zap.Error(err))
		}
	}

	// Callers see empty tables instead of absent ones.
	if d.settlerStarts == nil {
		d.settlerStarts = []int64{}
	}
	if d.torsoStarts == nil {
		d.torsoStarts = []int64{}
	}
	if d.shadowStarts == nil {
		d.shadowStarts = []int64{}
	}
	if d.landscapeStarts == nil {
		d.landscapeStarts = []int64{}
	}
	if d.guiStarts == nil {
		d.guiStarts = []int64{}
	}
	if d.animationStarts == nil {
		d.animationStarts = []int64{}
	}

	if overrideDifferences {
		d.alignOverlayTables()
	}

	d.settlerSequences = make([]*Sequence, len(d.settlerStarts))
	d.landscapeImages = make([]*Image, len(d.landscapeStarts))
	d.guiImages = make([]*Image, len(d.guiStarts))

	d.log.Debug("container opened",
		zap.String("path", d.path),
		zap.Int("settlers", len(d.settlerStarts)),
		zap.Int("torsos", len(d.torsoStarts)),
		zap.Int("shadows", len(d.shadowStarts)),
		zap.Int("landscape", len(d.landscapeStarts)),
		zap.Int("gui", len(d.guiStarts)),
		zap.Int("animations", len(d.animationStarts)))
	return nil
}

// readSequenceIndexStarts validates the fixed file preamble and returns the
// eight index table offsets.
func (d *Reader) readSequenceIndexStarts() ([sequenceTypeCount]int64, error) {
	var starts [sequenceTypeCount]int64

	if err := d.r.Seek(0); err != nil {
		return starts, err
	}
	if err := d.r.Expect(fileStart1); err != nil {
		return starts, err
	}
	if err := d.r.Expect(d.typ.StartMagic()); err != nil {
		return starts, err
	}
	if err := d.r.Expect(fileStart2); err != nil {
		return starts, err
	}

	fileSize, err := d.r.ReadUint32()
	if err != nil {
		return starts, err
	}
	if int64(fileSize) != d.size {
		return starts, fmt.Errorf("%w: header says %d, file is %d bytes",
			ErrLengthMismatch, fileSize, d.size)
	}

	for i := 0; i < sequenceTypeCount; i++ {
		v, err := d.r.ReadUint32()
		if err != nil {
			return starts, err
		}
		starts[i] = int64(v)
	}

	if err := d.r.Expect(fileHeaderEnd); err != nil {
		return starts, err
	}
	return starts, nil
}

// readSequencesAt parses the index table at the given offset and dispatches
// the sequence offsets to the category slot named by the table's tag.
func (d *Reader) readSequencesAt(offset int64) error {
	if err := d.r.Seek(offset); err != nil {
		return err
	}

	sequenceType, err := d.r.ReadUint32()
	if err != nil {
		return err
	}
	if sequenceType == idNone || sequenceType == idPalette {
		return nil
	}

	byteCount, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	pointerCount, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	if int(byteCount) != int(pointerCount)*4+8 {
		return fmt.Errorf("%w: index block byte count %d inconsistent with %d pointers",
			ErrFormatMismatch, byteCount, pointerCount)
	}

	pointers := make([]int64, pointerCount)
	for i := range pointers {
		v, err := d.r.ReadUint32()
		if err != nil {
			return err
		}
		pointers[i] = int64(v)
	}

	switch sequenceType {
	case idSettlers:
		d.settlerStarts = pointers
	case idTorsos:
		d.torsoStarts = pointers
	case idLandscape:
		d.landscapeStarts = pointers
	case idShadows:
		d.shadowStarts = pointers
	case idGuis:
		d.guiStarts = pointers
	case idAnimationInfo:
		d.animationStarts = pointers
	default:
		d.log.Warn("unknown sequence type, table discarded",
			zap.Uint32("tag", sequenceType),
			zap.Int("pointers", len(pointers)))
	}
	return nil
}

// alignOverlayTables right-aligns torso and shadow tables shorter than the
// settler table, padding the front with -1 so overlay index k lines up with
// settler index k for the trailing part. This mirrors how the authoring
// tool appended new body sequences without extending the overlay tables.
func (d *Reader) alignOverlayTables() {
	if diff := len(d.settlerStarts) - len(d.torsoStarts); diff > 0 {
		aligned := make([]int64, len(d.settlerStarts))
		for i := 0; i < diff; i++ {
			aligned[i] = -1
		}
		copy(aligned[diff:], d.torsoStarts)
		d.torsoStarts = aligned
	}

	if diff := len(d.settlerStarts) - len(d.shadowStarts); diff > 0 {
		aligned := make([]int64, len(d.settlerStarts))
		for i := 0; i < diff; i++ {
			aligned[i] = -1
		}
		copy(aligned[diff:], d.shadowStarts)
		d.shadowStarts = aligned
		// The reference reader blanks torso entries in this branch. That
		// contradicts the torso branch above and looks unintended, so the
		// shadow entries are blanked instead.
		d.log.Warn("shadow table shorter than settler table, front-filled with absent entries",
			zap.Int("missing", diff))
	}
}

// readSequenceHeader reads the per-frame offset table at the given
// position. Frame offsets are stored relative to the sequence start and
// are rebased to absolute positions. Callers must hold d.mu.
func (d *Reader) readSequenceHeader(position int64) ([]int64, error) {
	if err := d.r.Seek(position); err != nil {
		return nil, err
	}
	if err := d.r.Expect(sequenceStart); err != nil {
		return nil, err
	}

	frameCount, err := d.r.ReadUint8()
	if err != nil {
		return nil, err
	}

	positions := make([]int64, frameCount)
	for i := range positions {
		delta, err := d.r.ReadUint32()
		if err != nil {
			return nil, err
		}
		abs := int64(delta) + position
		if abs < 0 || abs >= d.size {
			return nil, fmt.Errorf("%w: frame %d offset 0x%x outside file",
				ErrFormatMismatch, i, abs)
		}
		positions[i] = abs
	}
	return positions, nil
}

// SequenceCount returns the number of sequences in a category.
func (d *Reader) SequenceCount(c Category) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.startsFor(c))
}

func (d *Reader) startsFor(c Category) []int64 {
	switch c {
	case CategorySettlers:
		return d.settlerStarts
	case CategoryTorsos:
		return d.torsoStarts
	case CategoryShadows:
		return d.shadowStarts
	case CategoryLandscape:
		return d.landscapeStarts
	case CategoryGui:
		return d.guiStarts
	case CategoryAnimation:
		return d.animationStarts
	}
	return nil
}

// FramePointers returns the absolute frame offsets of a sequence, for
// tools. Only the sequence-structured categories (settlers, torsos,
// shadows) carry frame tables. An absent overlay entry yields a nil
// vector without error.
func (d *Reader) FramePointers(c Category, index int) ([]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch c {
	case CategorySettlers, CategoryTorsos, CategoryShadows:
	default:
		return nil, fmt.Errorf("category %s has no frame table", c)
	}

	starts := d.startsFor(c)
	if index < 0 || index >= len(starts) {
		return nil, ErrIndexOutOfRange
	}
	if starts[index] < 0 {
		return nil, nil
	}
	return d.readSequenceHeader(starts[index])
}

// Landscape returns landscape image i, decoding it on first access. A
// translator failure is absorbed into a cached null image. Out-of-range
// indices fail with ErrIndexOutOfRange.
func (d *Reader) Landscape(index int) (*Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.landscapeImages) {
		return nil, ErrIndexOutOfRange
	}
	if d.landscapeImages[index] == nil {
		d.landscapeImages[index] = d.loadSingleImage(
			d.landscapeStarts[index], d.landscapeTranslator, CategoryLandscape, index)
	}
	return d.landscapeImages[index], nil
}

// LandscapeSafe is Landscape with out-of-range indices mapped to a null
// image.
func (d *Reader) LandscapeSafe(index int) *Image {
	img, err := d.Landscape(index)
	if err != nil {
		return NullImage()
	}
	return img
}

// Gui returns GUI image i, decoding it on first access.
func (d *Reader) Gui(index int) (*Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.guiImages) {
		return nil, ErrIndexOutOfRange
	}
	if d.guiImages[index] == nil {
		d.guiImages[index] = d.loadSingleImage(
			d.guiStarts[index], d.guiTranslator, CategoryGui, index)
	}
	return d.guiImages[index], nil
}

// GuiSafe is Gui with out-of-range indices mapped to a null image.
func (d *Reader) GuiSafe(index int) *Image {
	img, err := d.Gui(index)
	if err != nil {
		return NullImage()
	}
	return img
}

// loadSingleImage decodes the image payload at offset. Failures are
// demoted to a null image so the slot is still populated exactly once.
// Callers must hold d.mu.
func (d *Reader) loadSingleImage(offset int64, t Translator, c Category, index int) *Image {
	img, err := d.decodeAt(offset, t)
	if err != nil {
		d.log.Warn("image decode failed",
			zap.Stringer("category", c),
			zap.Int("index", index),
			zap.Error(err))
		return NullImage()
	}
	return img
}

// decodeAt seeks to an absolute payload offset and runs a translator.
// Callers must hold d.mu.
func (d *Reader) decodeAt(offset int64, t Translator) (*Image, error) {
	if err := d.r.Seek(offset); err != nil {
		return nil, err
	}
	return t.Decode(d.r, d.typ)
}

// SettlerSequence returns the composite settler sequence at index, built on
// first access. A failed build caches an empty sequence so retries are
// suppressed. Out-of-range indices fail with ErrIndexOutOfRange.
func (d *Reader) SettlerSequence(index int) (*Sequence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.settlerSequences) {
		return nil, ErrIndexOutOfRange
	}
	if d.settlerSequences[index] == nil {
		d.settlerSequences[index] = emptySequence
		seq, err := d.loadSettlers(index)
		if err != nil {
			d.log.Warn("loading settler sequence failed",
				zap.Int("sequence", index),
				zap.Error(err))
		} else {
			d.settlerSequences[index] = seq
		}
	}
	return d.settlerSequences[index], nil
}

// SettlerSequenceSafe is SettlerSequence with out-of-range indices mapped
// to an empty sequence.
func (d *Reader) SettlerSequenceSafe(index int) *Sequence {
	seq, err := d.SettlerSequence(index)
	if err != nil {
		return emptySequence
	}
	return seq
}

// loadSettlers builds the composite sequence for settler index: each body
// frame decoded with the settler translator, then torso and shadow overlays
// attached from the parallel tables where present. Overlay tables shorter
// than the body sequence only cover the overlap. Callers must hold d.mu.
func (d *Reader) loadSettlers(index int) (*Sequence, error) {
	positions, err := d.readSequenceHeader(d.settlerStarts[index])
	if err != nil {
		return nil, err
	}

	images := make([]*Image, len(positions))
	for i, pos := range positions {
		img, err := d.decodeAt(pos, d.settlerTranslator)
		if err != nil {
			return nil, fmt.Errorf("settler frame %d: %w", i, err)
		}
		images[i] = img
	}

	if index < len(d.torsoStarts) && d.torsoStarts[index] >= 0 {
		torsoPositions, err := d.readSequenceHeader(d.torsoStarts[index])
		if err != nil {
			return nil, fmt.Errorf("torso table: %w", err)
		}
		for i := 0; i < len(torsoPositions) && i < len(images); i++ {
			torso, err := d.decodeAt(torsoPositions[i], d.torsoTranslator)
			if err != nil {
				return nil, fmt.Errorf("torso frame %d: %w", i, err)
			}
			images[i].Torso = torso
		}
	}

	// A zero shadow offset also means "no shadow" here.
	if index < len(d.shadowStarts) && d.shadowStarts[index] > 0 {
		shadowPositions, err := d.readSequenceHeader(d.shadowStarts[index])
		if err != nil {
			return nil, fmt.Errorf("shadow table: %w", err)
		}
		for i := 0; i < len(shadowPositions) && i < len(images); i++ {
			shadow, err := d.decodeAt(shadowPositions[i], d.shadowTranslator)
			if err != nil {
				return nil, fmt.Errorf("shadow frame %d: %w", i, err)
			}
			images[i].Shadow = shadow
		}
	}

	return NewSequence(images), nil
}
