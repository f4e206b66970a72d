package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/tables"
)

const (
	RegionSize     = 64
	IdentOffset    = 0
	SettingsOffset = 1
	Ident          = 0x69
)

var ErrInvalidImage = errors.New("invalid settings image")

// Region is a fixed-size non-volatile byte area, read and written whole.
type Region interface {
	Read() ([]byte, error)
	Write(b []byte) error
}

// image is the raw on-storage layout of model.Settings.
type image struct {
	ISOIndex      int8
	ApertureIndex int8
	ShutterIndex  int8
	NDFilterIndex int8
	Metering      uint8
	Mode          uint8
	Adjust        uint8
	Slot          uint8
}

type Store struct {
	region Region
}

func New(region Region) *Store {
	return &Store{region: region}
}

// Load reads the settings from the region. A region without the identity
// marker, or with a corrupt image, is initialised with defaults.
func (s *Store) Load() (model.Settings, error) {
	buf, err := s.region.Read()
	if err != nil {
		return model.Settings{}, fmt.Errorf("read settings region: %w", err)
	}
	buf = fit(buf)

	if buf[IdentOffset] == Ident {
		settings, err := Decode(buf[SettingsOffset:])
		if err == nil {
			return settings, nil
		}
		log.Warn().Err(err).Msg("Stored settings are corrupt, rewriting defaults")
	} else {
		log.Info().Msg("Settings region not initialised, writing defaults")
	}

	defaults := model.DefaultSettings()
	if err := s.Save(defaults); err != nil {
		return defaults, err
	}
	return defaults, nil
}

// Save writes the identity marker and the full settings image.
func (s *Store) Save(settings model.Settings) error {
	img, err := Encode(settings)
	if err != nil {
		return err
	}

	buf := make([]byte, RegionSize)
	buf[IdentOffset] = Ident
	copy(buf[SettingsOffset:], img)

	if err := s.region.Write(buf); err != nil {
		return fmt.Errorf("write settings region: %w", err)
	}
	return nil
}

func Encode(settings model.Settings) ([]byte, error) {
	var b bytes.Buffer
	err := binary.Write(&b, binary.LittleEndian, image{
		ISOIndex:      settings.ISOIndex,
		ApertureIndex: settings.ApertureIndex,
		ShutterIndex:  settings.ShutterIndex,
		NDFilterIndex: settings.NDFilterIndex,
		Metering:      uint8(settings.Metering),
		Mode:          uint8(settings.Mode),
		Adjust:        uint8(settings.Adjust),
		Slot:          settings.Slot,
	})
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return b.Bytes(), nil
}

func Decode(b []byte) (model.Settings, error) {
	var img image
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &img); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	settings := model.Settings{
		ISOIndex:      img.ISOIndex,
		ApertureIndex: img.ApertureIndex,
		ShutterIndex:  img.ShutterIndex,
		NDFilterIndex: img.NDFilterIndex,
		Metering:      model.MeteringType(img.Metering),
		Mode:          model.ComputeMode(img.Mode),
		Adjust:        model.AdjustSetting(img.Adjust),
		Slot:          img.Slot,
	}
	if err := tables.CheckSettings(settings); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return settings, nil
}

// fit pads or truncates a region image to RegionSize.
func fit(b []byte) []byte {
	if len(b) == RegionSize {
		return b
	}
	out := make([]byte, RegionSize)
	copy(out, b)
	return out
}
