package mongodb

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// Store field names of the hourly production collection.
const (
	fieldID        = "_id"
	fieldLine      = "linha"
	fieldShift     = "turno"
	fieldTimestamp = "data"
)

// recordDocument mirrors one document of the hourly production collection. Every field is kept
// raw so that type drift in the store degrades to defaults instead of failing the whole snapshot.
type recordDocument struct {
	ID        bson.RawValue `bson:"_id"`
	Line      bson.RawValue `bson:"linha"`
	Shift     bson.RawValue `bson:"turno"`
	Timestamp bson.RawValue `bson:"data"`
	StartTime bson.RawValue `bson:"horaInicio"`
	EndTime   bson.RawValue `bson:"horaFim"`
	Target    bson.RawValue `bson:"meta"`
	Actual    bson.RawValue `bson:"realProduzido"`
	Stoppages bson.RawValue `bson:"paradas"`
}

type stoppageDocument struct {
	Code        bson.RawValue `bson:"codigo"`
	Category    bson.RawValue `bson:"categoria"`
	Description bson.RawValue `bson:"descricao"`
	Note        bson.RawValue `bson:"observacao"`
	MinutesLost bson.RawValue `bson:"minutosPerdidos"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// toRecord applies the ingestion contract: numbers default to 0 (negatives included), text
// defaults to "", timestamps are normalized into loc or left zero when unusable.
func (d recordDocument) toRecord(loc *time.Location) models.HourlyRecord {
	record := models.HourlyRecord{
		ID:        idOf(d.ID),
		Line:      models.LineCode(textOf(d.Line)),
		Shift:     models.ShiftCode(textOf(d.Shift)),
		StartTime: textOf(d.StartTime),
		EndTime:   textOf(d.EndTime),
		Target:    numberOf(d.Target),
		Actual:    numberOf(d.Actual),
		Stoppages: stoppagesOf(d.Stoppages),
	}
	if ts, ok := timestampOf(d.Timestamp, loc); ok {
		record.Timestamp = ts
	}
	return record
}

func stoppagesOf(value bson.RawValue) []models.Stoppage {
	arr, ok := value.ArrayOK()
	if !ok {
		return nil
	}
	values, err := arr.Values()
	if err != nil {
		return nil
	}

	stoppages := make([]models.Stoppage, 0, len(values))
	for _, v := range values {
		if v.Type != bson.TypeEmbeddedDocument {
			continue
		}
		var doc stoppageDocument
		if err := v.Unmarshal(&doc); err != nil {
			continue
		}
		stoppages = append(stoppages, models.Stoppage{
			Code:        textOf(doc.Code),
			Category:    textOf(doc.Category),
			Description: textOf(doc.Description),
			Note:        textOf(doc.Note),
			MinutesLost: numberOf(doc.MinutesLost),
		})
	}
	return stoppages
}

func idOf(value bson.RawValue) string {
	if oid, ok := value.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return textOf(value)
}

func textOf(value bson.RawValue) string {
	switch value.Type {
	case bson.TypeString:
		return value.StringValue()
	case bson.TypeInt32:
		return strconv.FormatInt(int64(value.Int32()), 10)
	case bson.TypeInt64:
		return strconv.FormatInt(value.Int64(), 10)
	case bson.TypeDouble:
		return strconv.FormatFloat(value.Double(), 'f', -1, 64)
	default:
		return ""
	}
}

func numberOf(value bson.RawValue) float64 {
	var n float64
	switch value.Type {
	case bson.TypeInt32:
		n = float64(value.Int32())
	case bson.TypeInt64:
		n = float64(value.Int64())
	case bson.TypeDouble:
		n = value.Double()
	case bson.TypeDecimal128:
		parsed, err := strconv.ParseFloat(value.Decimal128().String(), 64)
		if err != nil {
			return 0
		}
		n = parsed
	case bson.TypeString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.StringValue()), 64)
		if err != nil {
			return 0
		}
		n = parsed
	case bson.TypeBoolean:
		if value.Boolean() {
			n = 1
		}
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}

func timestampOf(value bson.RawValue, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch value.Type {
	case bson.TypeDateTime:
		return time.UnixMilli(value.DateTime()).In(loc), true
	case bson.TypeTimestamp:
		seconds, _ := value.Timestamp()
		return time.Unix(int64(seconds), 0).In(loc), true
	case bson.TypeString:
		raw := strings.TrimSpace(value.StringValue())
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
				return t.In(loc), true
			}
		}
	}
	return time.Time{}, false
}
