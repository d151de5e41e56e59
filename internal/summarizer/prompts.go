package summarizer

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/market_summary.md
var marketSummaryPromptRaw string

// MarketSummaryTemplate is the parsed prompt template for the market summary.
// Parsed once at package init; reused on every Summarize call.
var MarketSummaryTemplate = template.Must(
	template.New("market_summary").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(marketSummaryPromptRaw),
)
