package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
)

// FormatVersion is written to every export.
const FormatVersion = "1.0"

// exportDateLayout matches the ISO timestamps browsers produce.
const exportDateLayout = "2006-01-02T15:04:05.000Z"

// Document is the backup file layout.
type Document struct {
	Transacoes []TransactionRecord `json:"transacoes"`
	Categorias []CategoryRecord    `json:"categorias"`
	ExportDate string              `json:"exportDate"`
	Version    string              `json:"version"`
}

// TransactionRecord is a transaction as written in backups.
type TransactionRecord struct {
	ID          ID          `json:"id,omitempty"`
	Tipo        string      `json:"tipo"`
	Valor       json.Number `json:"valor"`
	Data        string      `json:"data"`
	Categoria   string      `json:"categoria,omitempty"`
	Descricao   string      `json:"descricao,omitempty"`
	CategoriaID string      `json:"categoria_id,omitempty"`
	Notas       string      `json:"notas,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// CategoryRecord is a category as written in backups.
type CategoryRecord struct {
	BudgetLimit *json.Number `json:"budget_limit,omitempty"`
	ID          ID           `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Color       string       `json:"color,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	IsDefault   bool         `json:"is_default"`
}

// ID is an identifier that older exports wrote as a number and newer ones as a
// string. Ids in canonical integer form are written back as numbers; anything
// else, like "007", stays a string so it reads back unchanged.
type ID string

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func fromTransaction(txn model.Transaction) TransactionRecord {
	tipo := "saida"
	if txn.Kind == model.KindIncome {
		tipo = "entrada"
	}
	return TransactionRecord{
		ID:          ID(txn.ID),
		Tipo:        tipo,
		Valor:       json.Number(txn.Amount.String()),
		Data:        txn.Date.Format(model.DateLayout),
		Categoria:   txn.CategoryName,
		Descricao:   txn.Description,
		CategoriaID: txn.CategoryID,
		Notas:       txn.Notes,
		Tags:        txn.Tags,
	}
}

func (r TransactionRecord) toTransaction() (model.Transaction, error) {
	var txn model.Transaction

	kind, ok := model.ParseKind(r.Tipo)
	if !ok {
		return txn, fmt.Errorf("unknown tipo %q", r.Tipo)
	}
	amount, err := decimal.NewFromString(r.Valor.String())
	if err != nil {
		return txn, fmt.Errorf("invalid valor %q: %w", r.Valor, err)
	}
	if amount.IsNegative() {
		return txn, fmt.Errorf("negative valor %s", amount)
	}
	date, err := parseBackupDate(r.Data)
	if err != nil {
		return txn, err
	}

	txn.ID = string(r.ID)
	txn.Kind = kind
	txn.Amount = amount
	txn.Date = date
	txn.CategoryName = strings.TrimSpace(r.Categoria)
	txn.CategoryID = strings.TrimSpace(r.CategoriaID)
	txn.Description = r.Descricao
	txn.Notes = r.Notas
	txn.Tags = r.Tags
	return txn, nil
}

func fromCategory(cat model.Category) CategoryRecord {
	rec := CategoryRecord{
		ID:        ID(cat.ID),
		Name:      cat.Name,
		Type:      string(cat.Type),
		Color:     cat.Color,
		Icon:      cat.Icon,
		IsDefault: cat.IsDefault,
	}
	if cat.BudgetLimit != nil {
		limit := json.Number(cat.BudgetLimit.String())
		rec.BudgetLimit = &limit
	}
	return rec
}

func (r CategoryRecord) toCategory() (model.Category, error) {
	var cat model.Category

	kind, ok := model.ParseKind(r.Type)
	if !ok {
		return cat, fmt.Errorf("category %q has unknown type %q", r.Name, r.Type)
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return cat, fmt.Errorf("category %q has no name", r.ID)
	}

	cat.ID = string(r.ID)
	cat.Name = name
	cat.Type = kind
	cat.Color = r.Color
	cat.Icon = r.Icon
	// The flag follows the canonical set, whatever the file claims.
	cat.IsDefault = model.IsCanonical(name, kind)
	if r.BudgetLimit != nil {
		limit, err := decimal.NewFromString(r.BudgetLimit.String())
		if err != nil {
			return cat, fmt.Errorf("category %q has invalid budget_limit: %w", name, err)
		}
		cat.BudgetLimit = &limit
	}
	return cat, nil
}

// parseBackupDate accepts a calendar date or a full ISO timestamp. Timestamps are
// moved to local time before the day is taken.
func parseBackupDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(model.DateLayout) {
		d, err := model.ParseDate(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid data %q: %w", s, err)
		}
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid data %q: %w", s, err)
	}
	return model.DateOnly(ts.In(time.Local)), nil
}
