package bankformat

// GenericKey is the key of the fuzzy fallback schema.
const GenericKey = "generic"

// Registry lists the known bank export schemas in declaration order. The
// generic fallback is not part of the registry; Detect tries it last.
var Registry = []*Schema{
	{
		Key:                "ubs-ch",
		Name:               "UBS Switzerland",
		Country:            "CH",
		DateColumns:        []string{"Trade date", "Abschlussdatum"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Debit", "Belastung"},
		CreditColumns:      []string{"Credit", "Gutschrift"},
		DescriptionColumns: []string{"Description 1", "Beschreibung 1"},
		CurrencyColumns:    []string{"Currency", "Währung"},
		DateLayouts:        []string{"02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       false,
	},
	{
		Key:                "postfinance-ch",
		Name:               "PostFinance",
		Country:            "CH",
		DateColumns:        []string{"Datum", "Date"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Lastschrift", "Debit"},
		CreditColumns:      []string{"Gutschrift", "Credit"},
		DescriptionColumns: []string{"Avisierungstext", "Notification text"},
		DateLayouts:        []string{"2006-01-02", "02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       false,
	},
	{
		Key:                "zkb-ch",
		Name:               "Zürcher Kantonalbank",
		Country:            "CH",
		DateColumns:        []string{"Datum", "Date"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Belastung CHF", "Debit CHF"},
		CreditColumns:      []string{"Gutschrift CHF", "Credit CHF"},
		DescriptionColumns: []string{"Buchungstext", "Booking text"},
		DateLayouts:        []string{"02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "raiffeisen-ch",
		Name:               "Raiffeisen Switzerland",
		Country:            "CH",
		DateColumns:        []string{"Booked At", "Datum"},
		AmountColumns:      []string{"Credit/Debit Amount", "Betrag"},
		DescriptionColumns: []string{"Text", "Buchungstext"},
		DateLayouts:        []string{"2006-01-02 15:04:05", "2006-01-02"},
		Delimiter:          ';',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "deutsche-bank-de",
		Name:               "Deutsche Bank",
		Country:            "DE",
		DateColumns:        []string{"Buchungstag", "Booking date"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Soll", "Debit"},
		CreditColumns:      []string{"Haben", "Credit"},
		DescriptionColumns: []string{"Verwendungszweck", "Purpose"},
		CurrencyColumns:    []string{"Währung", "Currency"},
		DateLayouts:        []string{"02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       true,
	},
	{
		Key:                "sparkasse-de",
		Name:               "Sparkasse",
		Country:            "DE",
		DateColumns:        []string{"Buchungstag"},
		AmountColumns:      []string{"Betrag"},
		DescriptionColumns: []string{"Verwendungszweck"},
		CurrencyColumns:    []string{"Waehrung", "Währung"},
		DateLayouts:        []string{"02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       true,
	},
	{
		Key:                "ing-de",
		Name:               "ING Germany",
		Country:            "DE",
		DateColumns:        []string{"Buchung", "Booking date"},
		AmountColumns:      []string{"Betrag", "Amount"},
		DescriptionColumns: []string{"Verwendungszweck", "Purpose"},
		CurrencyColumns:    []string{"Währung", "Currency"},
		DateLayouts:        []string{"02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       true,
	},
	{
		Key:                "n26-de",
		Name:               "N26",
		Country:            "DE",
		DateColumns:        []string{"Booking Date", "Date"},
		AmountColumns:      []string{"Amount (EUR)", "Amount"},
		DescriptionColumns: []string{"Partner Name", "Payee"},
		DateLayouts:        []string{"2006-01-02"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "comdirect-de",
		Name:               "comdirect",
		Country:            "DE",
		DateColumns:        []string{"Buchungstag"},
		AmountColumns:      []string{"Umsatz in EUR"},
		DescriptionColumns: []string{"Buchungstext"},
		DateLayouts:        []string{"02.01.2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       true,
	},
	{
		Key:                "bnp-paribas-fr",
		Name:               "BNP Paribas",
		Country:            "FR",
		DateColumns:        []string{"Date operation", "Date"},
		AmountColumns:      []string{"Montant operation", "Montant"},
		DescriptionColumns: []string{"Libelle operation", "Libelle"},
		DateLayouts:        []string{"02/01/2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       true,
	},
	{
		Key:                "credit-agricole-fr",
		Name:               "Crédit Agricole",
		Country:            "FR",
		DateColumns:        []string{"Date"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Débit", "Debit"},
		CreditColumns:      []string{"Crédit", "Credit"},
		DescriptionColumns: []string{"Libellé", "Libelle"},
		DateLayouts:        []string{"02/01/2006"},
		Delimiter:          ';',
		Encoding:           EncodingLatin1,
		DecimalComma:       true,
	},
	{
		Key:                "barclays-uk",
		Name:               "Barclays",
		Country:            "GB",
		DateColumns:        []string{"Date"},
		AmountColumns:      []string{"Amount"},
		DescriptionColumns: []string{"Memo"},
		DateLayouts:        []string{"02/01/2006"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "hsbc-uk",
		Name:               "HSBC UK",
		Country:            "GB",
		DateColumns:        []string{"Date"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Paid out"},
		CreditColumns:      []string{"Paid in"},
		DescriptionColumns: []string{"Description"},
		DateLayouts:        []string{"02/01/2006", "2 Jan 2006"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "lloyds-uk",
		Name:               "Lloyds Bank",
		Country:            "GB",
		DateColumns:        []string{"Transaction Date"},
		AmountColumns:      []string{},
		DebitColumns:       []string{"Debit Amount"},
		CreditColumns:      []string{"Credit Amount"},
		DescriptionColumns: []string{"Transaction Description"},
		DateLayouts:        []string{"02/01/2006"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "monzo-uk",
		Name:               "Monzo",
		Country:            "GB",
		DateColumns:        []string{"Date"},
		AmountColumns:      []string{"Amount"},
		DescriptionColumns: []string{"Name"},
		CurrencyColumns:    []string{"Currency"},
		DateLayouts:        []string{"02/01/2006", "2006-01-02"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "starling-uk",
		Name:               "Starling Bank",
		Country:            "GB",
		DateColumns:        []string{"Date"},
		AmountColumns:      []string{"Amount (GBP)"},
		DescriptionColumns: []string{"Counter Party", "Reference"},
		DateLayouts:        []string{"02/01/2006"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "revolut",
		Name:               "Revolut",
		Country:            "EU",
		DateColumns:        []string{"Started Date", "Completed Date"},
		AmountColumns:      []string{"Amount"},
		DescriptionColumns: []string{"Description"},
		CurrencyColumns:    []string{"Currency"},
		DateLayouts:        []string{"2006-01-02 15:04:05", "2006-01-02"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       false,
	},
	{
		Key:                "ing-nl",
		Name:               "ING Netherlands",
		Country:            "NL",
		DateColumns:        []string{"Datum", "Date"},
		AmountColumns:      []string{"Bedrag (EUR)", "Amount (EUR)"},
		DescriptionColumns: []string{"Naam / Omschrijving", "Name / Description"},
		DateLayouts:        []string{"20060102"},
		Delimiter:          ';',
		Encoding:           EncodingUTF8,
		DecimalComma:       true,
	},
	{
		Key:                "rabobank-nl",
		Name:               "Rabobank",
		Country:            "NL",
		DateColumns:        []string{"Datum"},
		AmountColumns:      []string{"Bedrag"},
		DescriptionColumns: []string{"Omschrijving-1", "Naam tegenpartij"},
		CurrencyColumns:    []string{"Munt"},
		DateLayouts:        []string{"2006-01-02"},
		Delimiter:          ',',
		Encoding:           EncodingUTF8,
		DecimalComma:       true,
	},
	{
		Key:                "abn-amro-nl",
		Name:               "ABN AMRO",
		Country:            "NL",
		DateColumns:        []string{"transactiondate", "Transactiedatum"},
		AmountColumns:      []string{"amount", "Bedrag"},
		DescriptionColumns: []string{"description", "Omschrijving"},
		CurrencyColumns:    []string{"mutationcode", "Munt"},
		DateLayouts:        []string{"20060102"},
		Delimiter:          ';',
		Encoding:           EncodingUTF8,
		DecimalComma:       true,
	},
	{
		Key:                "nordea-fi",
		Name:               "Nordea",
		Country:            "FI",
		DateColumns:        []string{"Booking date", "Kirjauspäivä"},
		AmountColumns:      []string{"Amount", "Määrä"},
		DescriptionColumns: []string{"Title", "Otsikko"},
		CurrencyColumns:    []string{"Currency", "Valuutta"},
		DateLayouts:        []string{"2006/01/02", "2006-01-02"},
		Delimiter:          ';',
		Encoding:           EncodingUTF8,
		DecimalComma:       true,
	},
}

// Generic is the fuzzy fallback schema applied when nothing in the registry
// clears the detection threshold. Its column candidates are substring tokens
// rather than exact names; Detect resolves them with fuzzyColumn.
var Generic = &Schema{
	Key:         GenericKey,
	Name:        "Generic CSV",
	DateLayouts: []string{"2006-01-02", "02.01.2006", "02/01/2006", "2006-01-02 15:04:05", "20060102", "2 Jan 2006"},
	Delimiter:   ',',
	Encoding:    EncodingUTF8,
}

var (
	genericDateTokens = []string{"date", "datum", "data", "dato", "fecha", "day"}
	genericAmountTokens = []string{
		"amount", "betrag", "montant", "importe", "importo", "bedrag",
		"value", "kwota", "belopp", "summe", "sum",
	}
	genericDescriptionTokens = []string{
		"description", "beschreibung", "memo", "text", "libell", "concepto",
		"descrizione", "omschrijving", "narrative", "reference", "payee",
		"details", "name", "title",
	}
	genericCurrencyTokens = []string{"currency", "währung", "waehrung", "devise", "munt", "valuutta"}
)

// resolveGeneric matches a header against the fuzzy role tokens. The date
// and amount roles must both resolve for the fallback to apply.
func resolveGeneric(header []string) (Columns, bool) {
	cols := Columns{
		Date:        fuzzyColumn(header, genericDateTokens),
		Amount:      fuzzyColumn(header, genericAmountTokens),
		Description: fuzzyColumn(header, genericDescriptionTokens),
		Currency:    fuzzyColumn(header, genericCurrencyTokens),
		Debit:       -1,
		Credit:      -1,
	}
	if cols.Date < 0 || cols.Amount < 0 {
		return cols, false
	}
	return cols, true
}

// Lookup returns the registry schema with the given key, or the generic
// fallback for GenericKey.
func Lookup(key string) (*Schema, bool) {
	if key == GenericKey {
		return Generic, true
	}
	for _, schema := range Registry {
		if schema.Key == key {
			return schema, true
		}
	}
	return nil, false
}

// Keys returns the keys of all known schemas including the generic fallback.
func Keys() []string {
	keys := make([]string, 0, len(Registry)+1)
	for _, schema := range Registry {
		keys = append(keys, schema.Key)
	}
	return append(keys, GenericKey)
}
