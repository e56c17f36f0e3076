package dat

import (
	"fmt"

	"go.uber.org/zap"
)

// AnimationFrame is one record of an animation script. Records reference
// sequences in other containers by numeric file id; resolving them is the
// caller's job via a Resolver.
type AnimationFrame struct {
	PosX        int16
	PosY        int16
	ObjectID    uint16
	ObjectFile  uint16
	TorsoID     uint16
	TorsoFile   uint16
	ShadowID    uint16
	ShadowFile  uint16
	ObjectFrame uint16
	TorsoFrame  uint16
	SoundFlag1  int16
	SoundFlag2  int16
}

// String formats the record for diagnostics.
func (f AnimationFrame) String() string {
	return fmt.Sprintf("pos (%d,%d) object %d/%d frame %d torso %d/%d frame %d shadow %d/%d sound %d,%d",
		f.PosX, f.PosY,
		f.ObjectFile, f.ObjectID, f.ObjectFrame,
		f.TorsoFile, f.TorsoID, f.TorsoFrame,
		f.ShadowFile, f.ShadowID,
		f.SoundFlag1, f.SoundFlag2)
}

// Resolver maps numeric file ids to opened containers for cross-file
// animation resolution.
type Resolver interface {
	File(id uint16) (*Reader, error)
}

// Animations decodes every animation script in the container. Records are
// stored on disk in reverse playback order; the returned slices are already
// reversed back to playback order. The result is built once and cached.
func (d *Reader) Animations() ([][]AnimationFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.animations != nil {
		return d.animations, nil
	}

	animations := make([][]AnimationFrame, len(d.animationStarts))
	for i, start := range d.animationStarts {
		animation, err := d.readAnimation(start)
		if err != nil {
			return nil, fmt.Errorf("animation script %d: %w", i, err)
		}
		animations[i] = animation
	}
	d.animations = animations
	return animations, nil
}

// readAnimation decodes one animation script. Callers must hold d.mu.
func (d *Reader) readAnimation(position int64) ([]AnimationFrame, error) {
	if err := d.r.Seek(position); err != nil {
		return nil, err
	}
	frameCount, err := d.r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if int64(frameCount)*animationRecordSize > d.size {
		return nil, fmt.Errorf("%w: %d records exceed file size", ErrFormatMismatch, frameCount)
	}

	animation := make([]AnimationFrame, frameCount)
	for j := uint32(0); j < frameCount; j++ {
		frame, err := d.readAnimationFrame()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", j, err)
		}
		// Records are stored in reverse playback order.
		animation[frameCount-1-j] = frame
	}
	return animation, nil
}

// animationRecordSize is the on-disk record size in bytes.
const animationRecordSize = 24

func (d *Reader) readAnimationFrame() (AnimationFrame, error) {
	var f AnimationFrame
	var err error
	if f.PosX, err = d.r.ReadInt16(); err != nil {
		return f, err
	}
	if f.PosY, err = d.r.ReadInt16(); err != nil {
		return f, err
	}
	if f.ObjectID, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.ObjectFile, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.TorsoID, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.TorsoFile, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.ShadowID, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.ShadowFile, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.ObjectFrame, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.TorsoFrame, err = d.r.ReadUint16(); err != nil {
		return f, err
	}
	if f.SoundFlag1, err = d.r.ReadInt16(); err != nil {
		return f, err
	}
	if f.SoundFlag2, err = d.r.ReadInt16(); err != nil {
		return f, err
	}
	return f, nil
}

// LoadAnimation resolves a decoded animation into a composed image
// sequence. Each record's body frame comes from the object file's settler
// table; torso and shadow overlays are attached when the referenced
// cross-file sequences exist and hold enough frames, and omitted with a log
// line otherwise. The shadow overlay deliberately uses the object frame
// index, not a frame index of its own.
func LoadAnimation(frames []AnimationFrame, resolve Resolver, log *zap.Logger) (*Sequence, error) {
	if log == nil {
		log = zap.NewNop()
	}

	images := make([]*Image, len(frames))
	for i, frame := range frames {
		object, err := resolve.File(frame.ObjectFile)
		if err != nil {
			return nil, fmt.Errorf("object file %d: %w", frame.ObjectFile, err)
		}
		image, err := object.decodeBodyFrame(int(frame.ObjectID), int(frame.ObjectFrame))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		if frame.TorsoID != 0 && frame.TorsoID != 0xffff {
			torso, err := resolveOverlay(resolve, frame.TorsoFile, func(r *Reader) (*Image, error) {
				return r.decodeTorsoFrame(int(frame.TorsoID), int(frame.TorsoFrame))
			})
			if err != nil {
				log.Debug("torso overlay omitted",
					zap.Int("record", i),
					zap.Uint16("file", frame.TorsoFile),
					zap.Uint16("torso", frame.TorsoID),
					zap.Error(err))
			} else {
				image.Torso = torso
			}
		}

		if frame.ShadowID > 0 {
			shadow, err := resolveOverlay(resolve, frame.ShadowFile, func(r *Reader) (*Image, error) {
				return r.decodeShadowFrame(int(frame.ShadowID), int(frame.ObjectFrame))
			})
			if err != nil {
				log.Debug("shadow overlay omitted",
					zap.Int("record", i),
					zap.Uint16("file", frame.ShadowFile),
					zap.Uint16("shadow", frame.ShadowID),
					zap.Error(err))
			} else {
				image.Shadow = shadow
			}
		}

		images[i] = image
	}
	return NewSequence(images), nil
}

func resolveOverlay(resolve Resolver, fileID uint16, decode func(*Reader) (*Image, error)) (*Image, error) {
	r, err := resolve.File(fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingReference, err)
	}
	return decode(r)
}

// decodeBodyFrame decodes a single settler frame without going through the
// composite sequence cache.
func (d *Reader) decodeBodyFrame(sequence, frame int) (*Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sequence < 0 || sequence >= len(d.settlerStarts) {
		return nil, fmt.Errorf("%w: settler sequence %d", ErrIndexOutOfRange, sequence)
	}
	positions, err := d.readSequenceHeader(d.settlerStarts[sequence])
	if err != nil {
		return nil, err
	}
	if frame < 0 || frame >= len(positions) {
		return nil, fmt.Errorf("%w: settler frame %d of %d", ErrIndexOutOfRange, frame, len(positions))
	}
	return d.decodeAt(positions[frame], d.settlerTranslator)
}

// decodeTorsoFrame decodes a single torso frame. Absent table entries are
// reported as missing references.
func (d *Reader) decodeTorsoFrame(sequence, frame int) (*Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sequence < 0 || sequence >= len(d.torsoStarts) {
		return nil, fmt.Errorf("%w: torso sequence %d", ErrMissingReference, sequence)
	}
	if d.torsoStarts[sequence] < 0 {
		return nil, fmt.Errorf("%w: torso sequence %d absent", ErrMissingReference, sequence)
	}
	positions, err := d.readSequenceHeader(d.torsoStarts[sequence])
	if err != nil {
		return nil, err
	}
	if frame < 0 || frame >= len(positions) {
		return nil, fmt.Errorf("%w: torso frame %d of %d", ErrMissingReference, frame, len(positions))
	}
	return d.decodeAt(positions[frame], d.torsoTranslator)
}

// decodeShadowFrame decodes a single shadow frame. A zero table entry
// means the sequence has no shadow.
func (d *Reader) decodeShadowFrame(sequence, frame int) (*Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sequence < 0 || sequence >= len(d.shadowStarts) {
		return nil, fmt.Errorf("%w: shadow sequence %d", ErrMissingReference, sequence)
	}
	if d.shadowStarts[sequence] <= 0 {
		return nil, fmt.Errorf("%w: shadow sequence %d absent", ErrMissingReference, sequence)
	}
	positions, err := d.readSequenceHeader(d.shadowStarts[sequence])
	if err != nil {
		return nil, err
	}
	if frame < 0 || frame >= len(positions) {
		return nil, fmt.Errorf("%w: shadow frame %d of %d", ErrMissingReference, frame, len(positions))
	}
	return d.decodeAt(positions[frame], d.shadowTranslator)
}
