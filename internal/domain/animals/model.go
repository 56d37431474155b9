package animals

import (
	"math"
	"strings"
	"time"

	"shelter-partner/internal/ports/docstore"
)

// AnimalType define la sub-colección de la society donde vive el animal.
// @Enum dog, cat
type AnimalType string

const (
	AnimalTypeDog AnimalType = "dog"
	AnimalTypeCat AnimalType = "cat"
)

func ParseAnimalType(s string) (AnimalType, error) {
	switch AnimalType(strings.ToLower(strings.TrimSpace(s))) {
	case AnimalTypeDog:
		return AnimalTypeDog, nil
	case AnimalTypeCat:
		return AnimalTypeCat, nil
	default:
		return "", ErrInvalidInput
	}
}

// Animal es un animal del refugio.
// StartTime (segundos epoch) solo tiene sentido mientras InCage == false.
type Animal struct {
	ID        string
	Name      string
	Type      AnimalType
	InCage    bool
	StartTime float64
	Logs      []Visit
}

// Visit es un paseo ya terminado. Nunca se modifica ni se borra.
type Visit struct {
	ID        string
	StartTime float64
	EndTime   float64
}

func (v Visit) Duration() time.Duration {
	return fromEpoch(v.EndTime).Sub(fromEpoch(v.StartTime))
}

// Campos del documento de animal.
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldType      = "animalType"
	fieldInCage    = "inCage"
	fieldStartTime = "startTime"
	fieldLogs      = "logs"
	fieldEndTime   = "endTime"
)

func (v Visit) toMap() map[string]any {
	return map[string]any{
		fieldID:        v.ID,
		fieldStartTime: v.StartTime,
		fieldEndTime:   v.EndTime,
	}
}

func visitFromMap(m map[string]any) (Visit, bool) {
	d := docstore.Document{Data: m}
	id, _ := d.String(fieldID)
	start, ok1 := d.Float(fieldStartTime)
	end, ok2 := d.Float(fieldEndTime)
	if !ok1 || !ok2 {
		return Visit{}, false
	}
	return Visit{ID: id, StartTime: start, EndTime: end}, true
}

func animalFromDocument(doc docstore.Document, typ AnimalType) Animal {
	a := Animal{Type: typ}

	a.ID, _ = doc.String(fieldID)
	if a.ID == "" {
		a.ID = doc.Path[strings.LastIndex(doc.Path, "/")+1:]
	}
	a.Name, _ = doc.String(fieldName)
	if t, ok := doc.String(fieldType); ok && t != "" {
		a.Type = AnimalType(t)
	}

	// Sin campo inCage => en jaula (estado inicial).
	a.InCage = true
	if v, ok := doc.Bool(fieldInCage); ok {
		a.InCage = v
	}
	a.StartTime, _ = doc.Float(fieldStartTime)

	for _, m := range doc.Maps(fieldLogs) {
		if v, ok := visitFromMap(m); ok {
			a.Logs = append(a.Logs, v)
		}
	}
	return a
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
