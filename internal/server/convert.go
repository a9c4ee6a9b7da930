package server

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
)

func getString(s *structpb.Struct, key string) string {
	if v, ok := s.GetFields()[key]; ok {
		return strings.TrimSpace(v.GetStringValue())
	}
	return ""
}

// getRaw returns a string member without trimming.
func getRaw(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func getBool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func getInt(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

func getStrings(s *structpb.Struct, key string) []string {
	var out []string
	for _, v := range s.GetFields()[key].GetListValue().GetValues() {
		if str := strings.TrimSpace(v.GetStringValue()); str != "" {
			out = append(out, str)
		}
	}
	return out
}

// getBytes decodes a base64 (standard encoding) member.
func getBytes(s *structpb.Struct, key string) ([]byte, error) {
	raw := getString(s, key)
	if raw == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be base64: %w", key, err)
	}
	return b, nil
}

// fieldList encodes a FieldMap as an ordered list of {key, value} pairs;
// a protobuf Struct would lose the key order.
func fieldList(m *fields.FieldMap) *structpb.ListValue {
	list := &structpb.ListValue{}
	m.Range(func(k, v string) bool {
		list.Values = append(list.Values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"key":   structpb.NewStringValue(k),
				"value": structpb.NewStringValue(v),
			},
		}))
		return true
	})
	return list
}

func stringList(ss []string) *structpb.ListValue {
	list := &structpb.ListValue{}
	for _, s := range ss {
		list.Values = append(list.Values, structpb.NewStringValue(s))
	}
	return list
}

// FieldsFromList decodes the pair list produced by the service.
func FieldsFromList(list *structpb.ListValue) *fields.FieldMap {
	out := fields.NewFieldMap()
	for _, v := range list.GetValues() {
		pair := v.GetStructValue()
		out.Set(getRaw(pair, "key"), getRaw(pair, "value"))
	}
	return out
}

func recordStruct(r *entity.TicketRecord) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"record_id":  structpb.NewStringValue(recordID(r)),
		"source":     structpb.NewStringValue(string(r.Source)),
		"mode":       structpb.NewStringValue(string(r.Mode)),
		"file_name":  structpb.NewStringValue(r.FileName),
		"ocr_text":   structpb.NewStringValue(r.OCRText),
		"confidence": structpb.NewNumberValue(float64(r.Confidence)),
		"fields":     structpb.NewListValue(fieldList(r.Fields)),
		"created_at": structpb.NewStringValue(r.CreatedAt.Format(time.RFC3339Nano)),
	}}
}

// recordID is empty for records that were not persisted.
func recordID(r *entity.TicketRecord) string {
	if r.UserID == "" {
		return ""
	}
	return r.ID.String()
}
