package classification

import "github.com/Veraticus/mycash/internal/model"

// DefaultPatterns returns keyword patterns for the default categories, tuned for
// Brazilian bank statement descriptions.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// Income
		{
			Category:   "Salário",
			Kind:       model.KindIncome,
			Regex:      `\b(SAL[AÁ]RIO|FOLHA\s*(DE\s*)?PAGAMENTO|PROVENTOS|PAYROLL|SALARY)\b`,
			Priority:   100,
			Confidence: 0.95,
		},
		{
			Category:   "Investimentos",
			Kind:       model.KindIncome,
			Regex:      `\b(RENDIMENTO|DIVIDENDO|JUROS|JCP|RESGATE|CDB|TESOURO|INTEREST|DIVIDEND)`,
			Priority:   95,
			Confidence: 0.90,
		},
		{
			Category:   "Freelance",
			Kind:       model.KindIncome,
			Regex:      `\b(FREELA|HONOR[AÁ]RIOS|NOTA\s*FISCAL|NFS-?E|INVOICE)`,
			Priority:   85,
			Confidence: 0.80,
		},

		// Expenses
		{
			Category:   "Moradia",
			Kind:       model.KindExpense,
			Regex:      `\b(ALUGUEL|CONDOM[IÍ]NIO|IPTU|ENERGIA|LUZ|ENEL|CEMIG|COPEL|SABESP|[AÁ]GUA|G[AÁ]S|INTERNET|VIVO|CLARO)\b`,
			Priority:   90,
			Confidence: 0.85,
		},
		{
			Category:   "Saúde",
			Kind:       model.KindExpense,
			Regex:      `\b(FARM[AÁ]CIA|DROGARIA|DROGA\s*RAIA|PAGUE\s*MENOS|HOSPITAL|CL[IÍ]NICA|LABORAT[OÓ]RIO|UNIMED|AMIL|DENTISTA)`,
			Priority:   85,
			Confidence: 0.85,
		},
		{
			Category:   "Educação",
			Kind:       model.KindExpense,
			Regex:      `\b(ESCOLA|COL[EÉ]GIO|FACULDADE|UNIVERSIDADE|CURSO|MENSALIDADE|UDEMY|ALURA|LIVRARIA)`,
			Priority:   80,
			Confidence: 0.80,
		},
		{
			Category:   "Transporte",
			Kind:       model.KindExpense,
			Regex:      `\b(UBER|99\s*(APP|TAXI|POP)|T[AÁ]XI|POSTO|COMBUST[IÍ]VEL|SHELL|IPIRANGA|ESTACIONAMENTO|PED[AÁ]GIO|SEM\s*PARAR|METR[OÔ]|BILHETE\s*[UÚ]NICO)`,
			Priority:   75,
			Confidence: 0.85,
		},
		{
			Category:   "Alimentação",
			Kind:       model.KindExpense,
			Regex:      `\b(MERCADO|SUPERMERCADO|ATACAD[AÃ]O|ASSA[IÍ]|CARREFOUR|P[AÃ]O\s*DE\s*A[CÇ][UÚ]CAR|PADARIA|A[CÇ]OUGUE|HORTIFRUTI|IFOOD|RESTAURANTE|LANCHONETE)`,
			Priority:   70,
			Confidence: 0.80,
		},
		{
			Category:   "Lazer",
			Kind:       model.KindExpense,
			Regex:      `\b(NETFLIX|SPOTIFY|DISNEY|HBO|PRIME\s*VIDEO|CINEMA|INGRESSO|STEAM|PLAYSTATION|XBOX|BAR\b)`,
			Priority:   60,
			Confidence: 0.75,
		},
	}
}
