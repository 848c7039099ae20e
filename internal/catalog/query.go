package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatRange bounds a numeric characteristic. Nil ends are unbounded.
type FloatRange struct {
	Min *float64
	Max *float64
}

// Filter selects catalog records by characteristics. Zero-valued fields are
// ignored, so an empty Filter matches everything.
type Filter struct {
	NamePattern     string // case-insensitive substring
	Manufacturer    string
	Manufacturers   []string
	Type            SwitchType
	TopHousing      string
	BottomHousing   string
	Stem            string
	Mount           string
	Spring          string
	ActuationForceG *FloatRange
	BottomOutForceG *FloatRange
	PreTravelMm     *FloatRange
	TotalTravelMm   *FloatRange
	Limit           int
	Offset          int
}

const selectColumns = `id, name, manufacturer, type, top_housing, bottom_housing,
	stem, mount, spring, actuation_force_g, bottom_out_force_g,
	pre_travel_mm, total_travel_mm`

// queryBuilder assembles a parameterized WHERE clause in a deterministic
// order so identical filters produce identical SQL.
type queryBuilder struct {
	clauses []string
	args    []interface{}
}

func (b *queryBuilder) add(clause string, arg interface{}) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(b.args))))
}

func (b *queryBuilder) addRange(column string, r *FloatRange) {
	if r == nil {
		return
	}
	if r.Min != nil && r.Max != nil {
		b.args = append(b.args, *r.Min, *r.Max)
		b.clauses = append(b.clauses, fmt.Sprintf("%s BETWEEN $%d AND $%d", column, len(b.args)-1, len(b.args)))
		return
	}
	if r.Min != nil {
		b.add(column+" >= ?", *r.Min)
	}
	if r.Max != nil {
		b.add(column+" <= ?", *r.Max)
	}
}

func (b *queryBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// buildFilterQuery compiles a Filter into a SELECT statement with positional
// arguments. Text characteristics match case-insensitively; numeric
// characteristics match inclusive ranges.
func buildFilterQuery(f Filter) (string, []interface{}) {
	b := &queryBuilder{}

	if f.NamePattern != "" {
		b.add("name ILIKE ?", "%"+f.NamePattern+"%")
	}
	if f.Manufacturer != "" {
		b.add("manufacturer ILIKE ?", f.Manufacturer)
	}
	if len(f.Manufacturers) > 0 {
		placeholders := make([]string, len(f.Manufacturers))
		for i, m := range f.Manufacturers {
			b.args = append(b.args, m)
			placeholders[i] = "$" + strconv.Itoa(len(b.args))
		}
		b.clauses = append(b.clauses, "manufacturer IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.Type != "" {
		b.add("type = ?", string(f.Type))
	}
	if f.TopHousing != "" {
		b.add("top_housing ILIKE ?", f.TopHousing)
	}
	if f.BottomHousing != "" {
		b.add("bottom_housing ILIKE ?", f.BottomHousing)
	}
	if f.Stem != "" {
		b.add("stem ILIKE ?", f.Stem)
	}
	if f.Mount != "" {
		b.add("mount ILIKE ?", f.Mount)
	}
	if f.Spring != "" {
		b.add("spring ILIKE ?", f.Spring)
	}

	b.addRange("actuation_force_g", f.ActuationForceG)
	b.addRange("bottom_out_force_g", f.BottomOutForceG)
	b.addRange("pre_travel_mm", f.PreTravelMm)
	b.addRange("total_travel_mm", f.TotalTravelMm)

	query := "SELECT " + selectColumns + " FROM switches" + b.where() + " ORDER BY name"

	if f.Limit > 0 {
		b.args = append(b.args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(b.args))
	}
	if f.Offset > 0 {
		b.args = append(b.args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(b.args))
	}

	return query, b.args
}

// vectorLiteral formats an embedding as a pgvector input literal.
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
