package fmp

// Profile is a company profile record.
type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	Website     string  `json:"website"`
	Country     string  `json:"country"`
	MktCap      float64 `json:"mktCap"`
	Price       float64 `json:"price"`
	Beta        float64 `json:"beta"`
	LastDiv     float64 `json:"lastDiv"`
	Exchange    string  `json:"exchangeShortName"`
	Currency    string  `json:"currency"`
	IPODate     string  `json:"ipoDate"`
}

// Quote is a real-time quote record.
type Quote struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	PreviousClose     float64 `json:"previousClose"`
	MarketCap         float64 `json:"marketCap"`
	PE                float64 `json:"pe"`
	EPS               float64 `json:"eps"`
	SharesOutstanding float64 `json:"sharesOutstanding"`
	Volume            int64   `json:"volume"`
	Exchange          string  `json:"exchange"`
}

// KeyMetrics is the most recent key-metrics record.
type KeyMetrics struct {
	PERatio                float64 `json:"peRatio"`
	PriceToSalesRatio      float64 `json:"priceToSalesRatio"`
	PBRatio                float64 `json:"pbRatio"`
	EnterpriseValue        float64 `json:"enterpriseValue"`
	EVToSales              float64 `json:"evToSales"`
	EVToEBITDA             float64 `json:"evToEbitda"`
	ROE                    float64 `json:"roe"`
	ROIC                   float64 `json:"roic"`
	DebtToEquity           float64 `json:"debtToEquity"`
	DividendYield          float64 `json:"dividendYield"`
	PayoutRatio            float64 `json:"payoutRatio"`
	InsiderOwnership       float64 `json:"insiderOwnership"`
	InstitutionalOwnership float64 `json:"institutionalOwnership"`
}

// IncomeStatement is one fiscal year of the income statement.
type IncomeStatement struct {
	Date                 string  `json:"date"`
	Revenue              float64 `json:"revenue"`
	GrossProfit          float64 `json:"grossProfit"`
	OperatingIncome      float64 `json:"operatingIncome"`
	EBITDA               float64 `json:"ebitda"`
	InterestExpense      float64 `json:"interestExpense"`
	IncomeBeforeTax      float64 `json:"incomeBeforeTax"`
	IncomeTaxExpense     float64 `json:"incomeTaxExpense"`
	NetIncome            float64 `json:"netIncome"`
	EPS                  float64 `json:"eps"`
	EPSDiluted           float64 `json:"epsdiluted"`
	WeightedAvgShs       float64 `json:"weightedAverageShsOut"`
	WeightedAvgShsDil    float64 `json:"weightedAverageShsOutDil"`
}

// BalanceSheet is one fiscal year of the balance sheet.
type BalanceSheet struct {
	Date                     string  `json:"date"`
	CashAndCashEquivalents   float64 `json:"cashAndCashEquivalents"`
	TotalCurrentAssets       float64 `json:"totalCurrentAssets"`
	TotalAssets              float64 `json:"totalAssets"`
	ShortTermDebt            float64 `json:"shortTermDebt"`
	LongTermDebt             float64 `json:"longTermDebt"`
	TotalLiabilities         float64 `json:"totalLiabilities"`
	TotalStockholdersEquity  float64 `json:"totalStockholdersEquity"`
	TotalDebt                float64 `json:"totalDebt"`
	NetDebt                  float64 `json:"netDebt"`
}

// CashFlow is one fiscal year of the cash flow statement.
type CashFlow struct {
	Date               string  `json:"date"`
	NetIncome          float64 `json:"netIncome"`
	OperatingCashFlow  float64 `json:"operatingCashFlow"`
	CapitalExpenditure float64 `json:"capitalExpenditure"`
	FreeCashFlow       float64 `json:"freeCashFlow"`
	DividendsPaid      float64 `json:"dividendsPaid"`
}

// SearchHit is one ticker lookup result.
type SearchHit struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchangeShortName"`
}
