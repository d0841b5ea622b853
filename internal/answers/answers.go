// Package answers selects canned Ethiopian tax-law answers by keyword.
//
// It stands in for a real answering engine: the query is lower-cased and
// tested against fixed keyword groups in priority order; the first group
// with a matching keyword wins and there is no combination logic.
package answers

import (
	"fmt"
	"strings"
)

// Topic names the keyword group an answer was selected by.
type Topic string

const (
	TopicCorporateTax Topic = "corporate_tax"
	TopicWithholding  Topic = "withholding"
	TopicDeductions   Topic = "deductions"
	TopicGeneral      Topic = "general"
)

// Answer is a canned response together with its citation metadata.
type Answer struct {
	Topic      Topic
	Text       string
	Confidence float64
	Sources    []string
}

const CorporateTaxAnswer = "In Ethiopia, corporate income tax rates vary based on the nature of the business activity. For most enterprises, the standard corporate income tax rate is 30% on taxable income. However, there are some important considerations:\n\n1. **Manufacturing Enterprises**: May enjoy tax holidays or reduced rates under investment incentive programs.\n\n2. **Small Business Enterprises**: Defined as businesses with annual turnover below 3 million Birr, and are taxed at 10% on net profit.\n\n3. **Banks and Insurance Companies**: Subject to higher rates, typically around 35% for commercial banks.\n\n4. **Petroleum Companies**: Subject to special tax regimes.\n\nReferences:\n- Income Tax Proclamation No. 979/2016, Articles 28-35\n- Council of Ministers Regulations No. 421/2018"

const WithholdingAnswer = "Withholding tax in Ethiopia is calculated on various types of payments. Here are the main categories:\n\n1. **Dividends**: 10% withheld by the payer\n2. **Interest**: 10% withheld\n3. **Royalties**: 10% withheld\n4. **Rental Income**: 10% withheld\n5. **Service Fees**: 5-10% depending on the service type\n6. **Contractor Payments**: 2-3% on gross payment for certain services\n\n**Calculation Formula**:\nWithholding Tax = Payment Amount × Applicable Rate\n\n**Example**: If a company pays 100,000 Birr as dividend:\nWithholding Tax = 100,000 × 10% = 10,000 Birr\nNet Payment = 100,000 - 10,000 = 90,000 Birr\n\nReferences:\n- Income Tax Proclamation No. 979/2016, Articles 69-93\n- Tax Administration Proclamation No. 983/2016"

const DeductionsAnswer = "Under Ethiopian tax law, the following business expenses are generally deductible in computing taxable income:\n\n**Ordinary and Necessary Expenses**:\n- Salaries and wages paid to employees\n- Cost of goods sold (COGS)\n- Rent for business premises\n- Utilities (electricity, water, telephone)\n- Office supplies and materials\n- Professional fees (accounting, legal, consulting)\n- Insurance premiums for business\n- Depreciation on business assets\n- Interest on business loans\n- Transportation and travel expenses\n- Advertising and marketing costs\n- Training and development expenses\n\n**Expenses NOT Deductible**:\n- Personal living expenses\n- Fines and penalties\n- Taxes on income itself\n- Expenditures for acquiring capital assets (depreciated instead)\n- Political contributions\n- Donations (with limited exceptions)\n\n**Important**: All deductions must be supported by documentation and substantiate business purpose.\n\nReferences:\n- Income Tax Proclamation No. 979/2016, Articles 14-20\n- Tax Administration Proclamation No. 983/2016"

const fallbackFormat = "Thank you for your question about Ethiopian tax law: \"%s\"\n\nBased on Ethiopian tax regulations, I can provide guidance on various tax matters. However, for the specific scenario you mentioned, I recommend consulting with:\n\n1. **Ethiopian Tax Authority** - For official tax guidance\n2. **Licensed Tax Professionals** - For personalized advice\n3. **Official Tax Proclamations** - Income Tax Proclamation No. 979/2016 and Tax Administration Proclamation No. 983/2016\n\nPlease note that while I strive for accuracy, this information should not be considered as professional tax advice. Always verify with authoritative sources."

// SuggestedQuestions are offered to users before their first query.
var SuggestedQuestions = []string{
	"What are the corporate tax rates in Ethiopia?",
	"How do I calculate withholding tax?",
	"What expenses are deductible for businesses?",
}

type group struct {
	keywords []string
	answer   Answer
}

// groups is checked in order; earlier groups take priority.
var groups = []group{
	{
		keywords: []string{"corporate tax", "tax rate", "corporate income"},
		answer: Answer{
			Topic:      TopicCorporateTax,
			Text:       CorporateTaxAnswer,
			Confidence: 0.92,
			Sources: []string{
				"Income Tax Proclamation No. 979/2016, Articles 28-35",
				"Council of Ministers Regulations No. 421/2018",
			},
		},
	},
	{
		keywords: []string{"withholding", "withheld"},
		answer: Answer{
			Topic:      TopicWithholding,
			Text:       WithholdingAnswer,
			Confidence: 0.9,
			Sources: []string{
				"Income Tax Proclamation No. 979/2016, Articles 69-93",
				"Tax Administration Proclamation No. 983/2016",
			},
		},
	},
	{
		keywords: []string{"deductible", "deduction", "expenses"},
		answer: Answer{
			Topic:      TopicDeductions,
			Text:       DeductionsAnswer,
			Confidence: 0.88,
			Sources: []string{
				"Income Tax Proclamation No. 979/2016, Articles 14-20",
				"Tax Administration Proclamation No. 983/2016",
			},
		},
	},
}

// FallbackConfidence is reported for queries that matched no keyword group.
const FallbackConfidence = 0.35

// Match returns the canned answer for query. Queries that match no group get
// a generic answer quoting the query verbatim.
func Match(query string) Answer {
	lower := strings.ToLower(query)
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.answer.clone()
			}
		}
	}
	return Answer{
		Topic:      TopicGeneral,
		Text:       Fallback(query),
		Confidence: FallbackConfidence,
		Sources: []string{
			"Income Tax Proclamation No. 979/2016",
			"Tax Administration Proclamation No. 983/2016",
		},
	}
}

// Fallback renders the generic answer for an unmatched query.
func Fallback(query string) string {
	return fmt.Sprintf(fallbackFormat, query)
}

func (a Answer) clone() Answer {
	out := a
	out.Sources = append([]string(nil), a.Sources...)
	return out
}
