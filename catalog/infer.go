package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/flanksource/commons/collections/set"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

const defaultSampleSize = 150

// Infer derives the fields of a dynamic entity type from the row columns
// prefixed with "{entityType}_". Only the first rows are sampled.
func Infer(entityType string, rows []types.Row) Entity {
	prefix := types.ColumnKey(entityType, "")

	var order []string
	typeSets := make(map[string]set.Set[types.DataType])
	for i, row := range rows {
		if i >= defaultSampleSize {
			break
		}

		for col, val := range row {
			if !strings.HasPrefix(col, prefix) || col == prefix {
				continue
			}
			if typeSets[col] == nil {
				typeSets[col] = set.New[types.DataType]()
				order = append(order, col)
			}
			if val != nil {
				typeSets[col].Add(goValueDataType(val))
			}
		}
	}

	entity := Entity{Type: entityType, Label: entityType}
	slices.Sort(order)
	for _, col := range order {
		name := strings.TrimPrefix(col, prefix)
		entity.Fields = append(entity.Fields, models.FieldConfig{
			Value:    name,
			Label:    name,
			DataType: bestDataType(typeSets[col]),
		})
	}
	return entity
}

func bestDataType(typeSet set.Set[types.DataType]) types.DataType {
	for _, t := range []types.DataType{
		types.DataTypeArray,
		types.DataTypeString,
		types.DataTypeDate,
		types.DataTypeFloat,
		types.DataTypeNumber,
		types.DataTypeBoolean,
	} {
		if typeSet.Contains(t) {
			return t
		}
	}
	return types.DataTypeString
}

func goValueDataType(value any) types.DataType {
	switch v := value.(type) {
	case bool:
		return types.DataTypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return types.DataTypeNumber
	case float32:
		return floatDataType(float64(v))
	case float64:
		return floatDataType(v)
	case time.Time, *time.Time:
		return types.DataTypeDate
	case string:
		if types.IsDateLike(v) {
			if _, ok := types.ParseTime(v); ok {
				return types.DataTypeDate
			}
		}
		return types.DataTypeString
	}

	if _, ok := types.AsSlice(value); ok {
		return types.DataTypeArray
	}
	return types.DataTypeString
}

// floatDataType treats whole floats decoded from JSON as numbers.
func floatDataType(f float64) types.DataType {
	if f == float64(int64(f)) {
		return types.DataTypeNumber
	}
	return types.DataTypeFloat
}
