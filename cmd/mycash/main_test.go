package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/mycash/internal/classification"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv runs commands against one database file in a scratch home directory.
type cliEnv struct {
	t      *testing.T
	dbPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MYCASH_BACKEND", "")
	t.Cleanup(viper.Reset)
	return &cliEnv{t: t, dbPath: filepath.Join(home, "data", "mycash.db")}
}

func (e *cliEnv) runWithInput(stdin string, args ...string) (string, error) {
	e.t.Helper()
	viper.Reset()
	cfgFile = ""

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", e.dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runWithInput("", args...)
	require.NoError(e.t, err, out)
	return out
}

func today() string {
	return time.Now().Format(model.DateLayout)
}

func TestTransactionLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("tx", "list")
	assert.Contains(t, out, "Salário mensal")
	assert.Contains(t, out, "+R$ 5.000,00")
	assert.Contains(t, out, "Aluguel")

	out = env.run("tx", "add", "--type", "saida", "--amount", "42,90", "--date", today(),
		"--category", "1", "--description", "Feira", "--tags", "casa,semanal")
	assert.Contains(t, out, "Transação 5 registrada: -R$ 42,90")
	assert.Contains(t, out, "Alimentação")

	out = env.run("tx", "edit", "5", "--amount", "50")
	assert.Contains(t, out, "Transação 5 atualizada: -R$ 50,00")

	out = env.run("tx", "list", "--period", "week")
	assert.Contains(t, out, "Feira")
	assert.Contains(t, out, "casa,semanal")

	out = env.run("tx", "delete", "5")
	assert.Contains(t, out, "Transação 5 excluída")
	out = env.run("tx", "delete", "5")
	assert.Contains(t, out, "não encontrada")

	_, err := env.runWithInput("", "tx", "edit", "99", "--amount", "1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionAdd_Validation(t *testing.T) {
	env := newCLIEnv(t)

	tests := map[string][]string{
		"bad amount": {"--type", "expense", "--amount", "abc", "--date", today()},
		"bad type":   {"--type", "transfer", "--amount", "10", "--date", today()},
		"bad date":   {"--type", "expense", "--amount", "10", "--date", "ontem"},
	}
	for name, flags := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := env.runWithInput("", append([]string{"tx", "add"}, flags...)...)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	_, err := env.runWithInput("", "tx", "list", "--period", "decade")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCategoriesCommands(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("categories", "add", "--name", "Pets", "--type", "expense", "--budget", "300")
	assert.Contains(t, out, `Categoria "Pets" criada`)

	_, err := env.runWithInput("", "categories", "add", "--name", "pets", "--type", "expense")
	assert.ErrorIs(t, err, common.ErrDuplicateCategory)

	out = env.run("categories", "add", "--name", "Pets", "--type", "income")
	assert.Contains(t, out, "criada")

	out = env.run("categories", "list", "--type", "expense")
	assert.Contains(t, out, "Pets")
	assert.Contains(t, out, "R$ 300,00")
	assert.NotContains(t, out, "Salário")

	// Salário still labels the sample income.
	_, err = env.runWithInput("", "categories", "delete", "7")
	assert.ErrorIs(t, err, common.ErrCategoryInUse)

	out = env.run("categories", "update", "3", "--name", "Casa")
	assert.Contains(t, out, "Categoria 3 atualizada: Casa (expense)")

	out = env.run("tx", "list")
	assert.Contains(t, out, "Moradia", "past transactions keep the old label")
}

func TestSummaryAndBalance(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("MYCASH_SEED_SAMPLE_DATA", "false")

	env.run("tx", "add", "-t", "income", "-a", "1000", "-d", today(), "-c", "7")
	env.run("tx", "add", "-t", "expense", "-a", "250", "-d", today(), "-c", "2")

	out := env.run("balance")
	assert.Contains(t, out, "Receitas: R$ 1.000,00")
	assert.Contains(t, out, "Despesas: R$ 250,00")
	assert.Contains(t, out, "R$ 750,00")
	assert.Contains(t, out, "Total em economia: R$ 750,00")

	out = env.run("summary", "--period", "month")
	assert.Contains(t, out, "Mês de")
	assert.Contains(t, out, "Transporte")
	assert.Contains(t, out, "100,0%")

	out = env.run("summary", "--period", "all")
	assert.Contains(t, out, "Todo o período")
}

func TestGoalsCommands(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("goals", "list")
	assert.Contains(t, out, "Nenhuma meta")

	env.run("goals", "add", "--name", "Viagem", "--target", "1000", "--due", "2099-12-31")

	a, err := openApp(context.Background())
	require.NoError(t, err)
	list, err := a.goals.List(context.Background())
	a.Close()
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	out = env.run("goals", "contribute", id, "1500")
	assert.Contains(t, out, "R$ 1.000,00 de R$ 1.000,00")
	assert.Contains(t, out, "meta atingida")

	out = env.run("goals", "withdraw", id, "400")
	assert.Contains(t, out, "R$ 600,00 de R$ 1.000,00")

	out = env.run("goals", "edit", id, "--target", "500")
	assert.Contains(t, out, "R$ 500,00 de R$ 500,00")

	out = env.run("goals", "list")
	assert.Contains(t, out, "Viagem")
	assert.Contains(t, out, "Total guardado: R$ 500,00")

	_, err = env.runWithInput("", "goals", "contribute", id, "0")
	assert.ErrorIs(t, err, common.ErrValidation)

	out = env.run("goals", "delete", id)
	assert.Contains(t, out, "excluída")
}

func TestExportResetImport(t *testing.T) {
	env := newCLIEnv(t)
	backupPath := filepath.Join(t.TempDir(), "backup.json")

	env.run("categories", "add", "--name", "Pets", "--type", "expense")
	out := env.run("export", "--output", backupPath)
	assert.Contains(t, out, "Backup salvo em "+backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transacoes"`)
	assert.Contains(t, string(data), `"version": "1.0"`)

	out, err = env.runWithInput("n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Nada foi apagado")

	out = env.run("reset", "--force")
	assert.Contains(t, out, "Todos os dados foram apagados")

	out = env.run("import", backupPath)
	assert.Contains(t, out, "Backup importado: 4 transações, 11 categorias")

	out = env.run("categories", "list")
	assert.Contains(t, out, "Pets")
}

func TestImport_InvalidFile(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categorias": []}`), 0o600))

	_, err := env.runWithInput("", "import", path)
	assert.ErrorIs(t, err, common.ErrInvalidBackup)
	assert.Equal(t, "Arquivo de backup inválido", common.UserMessage(err))

	out := env.run("status")
	assert.Contains(t, out, "Transações: 4")
}

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240531120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>BRL
<BANKACCTFROM>
<BANKID>0341
<ACCTID>12345-6
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240501120000[0:GMT]
<DTEND>20240531120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240512120000[0:GMT]
<TRNAMT>-230.45
<FITID>20240512001
<NAME>COMPRA CARTAO MERCADO BOM PRECO
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240515120000[0:GMT]
<TRNAMT>800.00
<FITID>20240515001
<NAME>PIX RECEBIDO JOAO
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>569.55
<DTASOF>20240531120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestImportOFX(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "extrato.ofx")
	require.NoError(t, os.WriteFile(path, []byte(statementOFX), 0o600))

	out := env.run("import-ofx", "--dry-run", path)
	assert.Contains(t, out, "extrato.ofx: 2 novas, 0 já registradas")
	assert.Contains(t, out, "MERCADO BOM PRECO")
	assert.Contains(t, out, "Alimentação", "category suggested from the description")
	assert.Contains(t, out, "Outros")

	out = env.run("import-ofx", "--dry-run", "--no-suggest", path)
	assert.NotContains(t, out, "Alimentação")

	out = env.run("import-ofx", "--income-category", "8", path)
	assert.Contains(t, out, "2 transações importadas")

	out = env.run("import-ofx", path)
	assert.Contains(t, out, "extrato.ofx: 0 novas, 2 já registradas")
	assert.Contains(t, out, "Nenhuma transação nova")

	out = env.run("tx", "list")
	assert.Contains(t, out, "12/05/2024")
	assert.Contains(t, out, "-R$ 230,45")
	assert.Contains(t, out, "Alimentação")
	assert.Contains(t, out, "JOAO")
	assert.Contains(t, out, "Freelance")

	_, err := env.runWithInput("", "import-ofx", filepath.Join(t.TempDir(), "missing.ofx"))
	assert.Error(t, err)
}

func TestImportOFX_IdenticalCharges(t *testing.T) {
	env := newCLIEnv(t)
	// A second market charge, same day and amount, with its own bank id.
	second := strings.Replace(statementOFX, "<STMTTRN>\n<TRNTYPE>CREDIT", `<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240512120000[0:GMT]
<TRNAMT>-230.45
<FITID>20240512002
<NAME>COMPRA CARTAO MERCADO BOM PRECO
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT`, 1)
	path := filepath.Join(t.TempDir(), "extrato.ofx")
	require.NoError(t, os.WriteFile(path, []byte(second), 0o600))

	out := env.run("import-ofx", path)
	assert.Contains(t, out, "extrato.ofx: 3 novas, 0 já registradas")
	assert.Contains(t, out, "3 transações importadas")

	out = env.run("import-ofx", path)
	assert.Contains(t, out, "extrato.ofx: 0 novas, 3 já registradas")
}

func TestMigrateCommand(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("migrate", "--status")
	assert.Contains(t, out, "Versão atual: 0 (última: 5)")
	assert.Contains(t, out, "pendente 1:")
	assert.Contains(t, out, "pendente 5:")

	out = env.run("migrate")
	assert.Contains(t, out, "5 migrações aplicadas")

	out = env.run("migrate")
	assert.Contains(t, out, "Esquema já está atualizado")
}

func TestStatusAndSamples(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("status")
	assert.Contains(t, out, "Transações: 4")
	assert.Contains(t, out, "Categorias: 10 (10 padrão)")
	assert.Contains(t, out, "esquema v5")
	assert.Contains(t, out, "Primeira instalação concluída: true")

	out = env.run("clear-samples")
	assert.Contains(t, out, "4 transações de exemplo removidas")

	out = env.run("status")
	assert.Contains(t, out, "Transações: 0", "samples are not inserted again")

	out = env.run("fix-categories")
	assert.Contains(t, out, "0 categorias corrigidas")
}

func TestParsePeriod(t *testing.T) {
	tests := map[string]model.Period{
		"":        "all",
		"all":     "all",
		"week":    model.PeriodWeek,
		" Month ": model.PeriodMonth,
		"quarter": model.PeriodQuarter,
		"year":    model.PeriodYear,
	}
	for raw, expected := range tests {
		got, err := parsePeriod(raw)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := parsePeriod("fortnight")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestVersionCmd(t *testing.T) {
	env := newCLIEnv(t)
	assert.Contains(t, env.run("version"), "mycash dev")
}

func TestSuggestCategory(t *testing.T) {
	detector, err := classification.NewPatternDetector(classification.DefaultPatterns())
	require.NoError(t, err)
	cats := model.DefaultCategories()

	uber := model.TransactionInput{Type: "expense", Description: "UBER *TRIP"}
	assert.Equal(t, "2", suggestCategory(detector, cats, uber))

	salary := model.TransactionInput{Type: "income", Description: "SALARIO ACME"}
	assert.Equal(t, "7", suggestCategory(detector, cats, salary))

	assert.Empty(t, suggestCategory(detector, cats, model.TransactionInput{Type: "expense", Description: "JOAO"}))
	assert.Empty(t, suggestCategory(detector, cats[:1], uber), "renamed or deleted categories are not suggested")
}
