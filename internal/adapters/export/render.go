package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"opscore/pkg/domain"
)

// collectRecords resolves a collection name to its committed records.
func collectRecords(source domain.PersistentStore, collection string) (any, bool) {
	switch collection {
	case "todos":
		return source.ListTodos(), true
	case "products":
		return source.ListProducts(), true
	case "customers":
		return source.ListCustomers(), true
	case "transactions":
		return source.ListTransactions(), true
	case "coupons":
		return source.ListCoupons(), true
	case "leads":
		return source.ListLeads(), true
	case "followups":
		return source.ListFollowUps(), true
	case "notes":
		return source.ListNotes(), true
	case "activities":
		return source.ListActivities(), true
	case "clients":
		return source.ListClients(), true
	case "appointments":
		return source.ListAppointments(), true
	case "reminders":
		return source.ListReminders(), true
	case "parcels":
		return source.ListParcels(), true
	default:
		return nil, false
	}
}

// render encodes the records in the requested format, returning the payload,
// its content type, and the row count.
func render(format Format, records any) ([]byte, string, int, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, "", 0, fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", reflect.ValueOf(records).Len(), nil
	case FormatCSV:
		headers, rows, err := tabulate(records)
		if err != nil {
			return nil, "", 0, err
		}
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(headers); err != nil {
			return nil, "", 0, err
		}
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				return nil, "", 0, err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", 0, err
		}
		return buf.Bytes(), "text/csv", len(rows), nil
	default:
		return nil, "", 0, fmt.Errorf("unsupported export format %s", format)
	}
}

// tabulate flattens a record slice into a header row of field names and one
// string row per record. Header order follows struct declaration order with
// embedded fields inlined, matching the records' JSON shape.
func tabulate(records any) ([]string, [][]string, error) {
	v := reflect.ValueOf(records)
	if v.Kind() != reflect.Slice {
		return nil, nil, fmt.Errorf("expected slice, got %T", records)
	}
	elem := v.Type().Elem()
	if elem.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("expected struct records, got %s", elem)
	}
	fields := flattenFields(elem, nil)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.name
	}
	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		record := v.Index(i)
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = formatValue(record.FieldByIndex(f.index))
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

type column struct {
	name  string
	index []int
}

func flattenFields(t reflect.Type, prefix []int) []column {
	var out []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		index := append(append([]int(nil), prefix...), i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			out = append(out, flattenFields(field.Type, index)...)
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			if base, _, _ := strings.Cut(tag, ","); base != "" && base != "-" {
				name = base
			}
		}
		out = append(out, column{name: name, index: index})
	}
	return out
}

func formatValue(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch value := v.Interface().(type) {
	case time.Time:
		return value.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(value, ",")
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
