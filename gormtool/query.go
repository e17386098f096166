package gormtool

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrInvalidField    = errors.New("invalid field")
	ErrInvalidOperator = errors.New("invalid operator")
)

// QueryCondition is one WHERE clause.
type QueryCondition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // =, !=, >, <, >=, <=, LIKE, IN, NOT IN, BETWEEN
	Value    interface{} `json:"value"`
}

// SortCondition is one ORDER BY term.
type SortCondition struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // ASC, DESC
}

// QueryBuilder describes a filtered, sorted listing. Preloads name
// associations to load eagerly; anything not listed stays unloaded.
type QueryBuilder struct {
	Conditions []QueryCondition `json:"conditions"`
	Sorts      []SortCondition  `json:"sorts"`
	Preloads   []string         `json:"preloads"`
}

// columns lists the fields of the model bound to db (db.Model) that may
// appear in a condition or a sort: mapped columns whose json tag is not "-".
func columns(db *gorm.DB) (map[string]struct{}, error) {
	if db.Statement.Model == nil {
		return nil, fmt.Errorf("%w: no model to resolve fields against", ErrInvalidField)
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(db.Statement.Model); err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(stmt.Schema.Fields))
	for _, f := range stmt.Schema.Fields {
		if f.DBName == "" || strings.SplitN(f.Tag.Get("json"), ",", 2)[0] == "-" {
			continue
		}
		out[f.DBName] = struct{}{}
	}
	return out, nil
}

func checkField(cols map[string]struct{}, field string) error {
	if _, ok := cols[field]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Where appends a condition and returns qb for chaining. Empty string values
// are skipped so optional query parameters can be passed straight through.
func (qb *QueryBuilder) Where(field, operator string, value interface{}) *QueryBuilder {
	if s, ok := value.(string); ok && s == "" {
		return qb
	}
	qb.Conditions = append(qb.Conditions, QueryCondition{Field: field, Operator: operator, Value: value})
	return qb
}

// ParseSort turns "price" or "-price" into a SortCondition.
func ParseSort(s string) (SortCondition, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortCondition{}, false
	}
	if strings.HasPrefix(s, "-") {
		return SortCondition{Field: s[1:], Direction: "DESC"}, true
	}
	return SortCondition{Field: s, Direction: "ASC"}, true
}

// BuildQuery applies the conditions of qb to db. Sorts and preloads are
// applied separately by BuildOrdering so the same filter can back a COUNT.
// db must carry a model; condition fields are resolved against its columns.
func BuildQuery(db *gorm.DB, qb *QueryBuilder) (*gorm.DB, error) {
	if qb == nil || len(qb.Conditions) == 0 {
		return db, nil
	}
	cols, err := columns(db)
	if err != nil {
		return nil, err
	}

	for _, cond := range qb.Conditions {
		if err := checkField(cols, cond.Field); err != nil {
			return nil, err
		}
		switch op := strings.ToUpper(cond.Operator); op {
		case "=", "!=", ">", "<", ">=", "<=":
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field, op), cond.Value)
		case "LIKE":
			s, ok := cond.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: LIKE needs a string value", ErrInvalidOperator)
			}
			db = db.Where(fmt.Sprintf("%s LIKE ? ESCAPE '\\'", cond.Field), "%"+escapeLike(s)+"%")
		case "IN":
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field), cond.Value)
		case "NOT IN":
			db = db.Where(fmt.Sprintf("%s NOT IN ?", cond.Field), cond.Value)
		case "BETWEEN":
			values, ok := cond.Value.([]interface{})
			if !ok || len(values) != 2 {
				return nil, fmt.Errorf("%w: BETWEEN needs two values", ErrInvalidOperator)
			}
			db = db.Where(fmt.Sprintf("%s BETWEEN ? AND ?", cond.Field), values[0], values[1])
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, cond.Operator)
		}
	}
	return db, nil
}

// BuildOrdering applies the sorts and preloads of qb to db. Sort fields are
// resolved against the columns of db's model like BuildQuery conditions.
func BuildOrdering(db *gorm.DB, qb *QueryBuilder) (*gorm.DB, error) {
	if qb == nil {
		return db, nil
	}

	var cols map[string]struct{}
	if len(qb.Sorts) > 0 {
		var err error
		if cols, err = columns(db); err != nil {
			return nil, err
		}
	}

	for _, sort := range qb.Sorts {
		if err := checkField(cols, sort.Field); err != nil {
			return nil, err
		}
		dir := strings.ToUpper(sort.Direction)
		if dir == "" {
			dir = "ASC"
		}
		if dir != "ASC" && dir != "DESC" {
			return nil, fmt.Errorf("%w: sort direction %q", ErrInvalidOperator, sort.Direction)
		}
		db = db.Order(fmt.Sprintf("%s %s", sort.Field, dir))
	}

	for _, preload := range qb.Preloads {
		db = db.Preload(preload)
	}
	return db, nil
}
