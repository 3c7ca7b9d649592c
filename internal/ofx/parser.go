// Package ofx turns OFX/QFX bank statements into transaction drafts for the ledger.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tag alone on its line with no closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the parsed content of one file.
type Statement struct {
	Accounts     []string
	Transactions []Entry
}

// Entry is one statement line as a ledger draft, plus the bank's identifiers.
type Entry struct {
	model.TransactionInput
	Account string
	// FITID is the bank's id for the entry, unique within its account.
	FITID string
}

// Parser reads OFX/QFX files.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile reads a statement and converts each entry into a transaction draft.
// Debits become expenses and credits become income, always with a positive amount.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	accounts := make(map[string]bool)

	for _, msg := range resp.Bank {
		bank, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		acct := string(bank.BankAcctFrom.AcctID)
		accounts[acct] = true
		stmt.Transactions = append(stmt.Transactions, p.convertList(acct, bank.BankTranList)...)
	}

	for _, msg := range resp.CreditCard {
		card, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		acct := string(card.CCAcctFrom.AcctID)
		accounts[acct] = true
		stmt.Transactions = append(stmt.Transactions, p.convertList(acct, card.BankTranList)...)
	}

	for acct := range accounts {
		if acct != "" {
			stmt.Accounts = append(stmt.Accounts, acct)
		}
	}
	sort.Strings(stmt.Accounts)

	slog.Info("Parsed OFX file",
		"transactions", len(stmt.Transactions),
		"accounts", len(stmt.Accounts))

	return stmt, nil
}

func (p *Parser) convertList(account string, list *ofxgo.TransactionList) []Entry {
	if list == nil {
		return nil
	}
	out := make([]Entry, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		out = append(out, Entry{
			TransactionInput: p.convertTransaction(ofxTx),
			Account:          account,
			FITID:            strings.TrimSpace(string(ofxTx.FiTID)),
		})
	}
	return out
}

// convertTransaction maps one OFX entry onto the ledger's write shape. The date is
// the posting day as written in the file.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) model.TransactionInput {
	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2)
	kind := model.KindIncome
	if amount.IsNegative() {
		kind = model.KindExpense
	}

	description := p.extractDescription(ofxTx)
	var notes string
	if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" && memo != description {
		notes = memo
	}

	tags := []string{"ofx"}
	if ofxTx.TrnType.Valid() {
		tags = append(tags, strings.ToLower(ofxTx.TrnType.String()))
	}

	return model.TransactionInput{
		Description:     description,
		Amount:          amount.Abs().StringFixed(2),
		Type:            string(kind),
		TransactionDate: ofxTx.DtPosted.Time.Format(model.DateLayout),
		Notes:           notes,
		Tags:            tags,
	}
}

// extractDescription prefers the payee, then the name, then the memo when the name
// says nothing useful.
func (p *Parser) extractDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range []string{
		"COMPRA CARTAO ",
		"COMPRA CARTÃO ",
		"PAGTO ",
		"PIX ENVIADO ",
		"PIX RECEBIDO ",
		"POS PURCHASE ",
		"DEBIT CARD PURCHASE ",
	} {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	// Leading "DD/MM " stamps repeat the posting date.
	if len(name) > 6 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBITO", "DÉBITO", "CREDITO", "CRÉDITO", "PIX", "DEBIT", "CREDIT", "PAYMENT":
		return true
	default:
		return false
	}
}

// Key identifies a draft for duplicate detection across repeated imports of
// overlapping statements.
func Key(kind model.Kind, date, amount, description string) string {
	normalized, err := decimal.NewFromString(amount)
	if err == nil {
		amount = normalized.StringFixed(2)
	}
	return strings.Join([]string{
		string(kind),
		date,
		amount,
		strings.ToUpper(strings.TrimSpace(description)),
	}, "|")
}

// DraftKey is Key for a parsed draft.
func DraftKey(in model.TransactionInput) string {
	kind, _ := model.ParseKind(in.Type)
	return Key(kind, in.TransactionDate, in.Amount, in.Description)
}

// Deduper picks the entries of an import that are new to the ledger. Entries are
// told apart from each other by FITID, so identical charges on the same day all
// survive. Against the ledger they match by Key, and each stored transaction
// absorbs at most one entry.
type Deduper struct {
	stored map[string]int
	fitids map[string]bool
}

// NewDeduper indexes the transactions already in the ledger.
func NewDeduper(existing []model.Transaction) *Deduper {
	d := &Deduper{
		stored: make(map[string]int, len(existing)),
		fitids: make(map[string]bool),
	}
	for _, txn := range existing {
		d.stored[Key(txn.Kind, txn.Date.Format(model.DateLayout), txn.Amount.String(), txn.Description)]++
	}
	return d
}

// Keep reports whether e should be imported. Calls must follow statement order.
func (d *Deduper) Keep(e Entry) bool {
	if e.FITID != "" {
		id := e.Account + "|" + e.FITID
		if d.fitids[id] {
			return false
		}
		d.fitids[id] = true
	}

	key := DraftKey(e.TransactionInput)
	if d.stored[key] > 0 {
		d.stored[key]--
		return false
	}
	return true
}
