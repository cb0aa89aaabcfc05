package rules

// builtinPayload returns the minimal hard-coded rule set activated on first
// run, before any externally authored payload has ever been accepted. It
// covers the highest-volume payment apps with deliberately narrow rules; the
// heuristic fallback parser handles everything else.
func builtinPayload() *Payload {
	return &Payload{
		Version:       "builtin-1",
		MinAppVersion: 0,
		Apps: []AppPayload{
			{
				PackageName: "com.tencent.mm",
				Rules: []RulePayload{
					{
						Type:            "expense",
						TriggerKeywords: []string{"Payment successful", "支付成功"},
						ExcludeKeywords: []string{"Confirm payment", "待支付"},
						AmountRegex:     []string{`[¥￥]\s*([0-9,]+(?:\.[0-9]{1,2})?)`},
						Category:        "Uncategorized",
						Priority:        10,
					},
					{
						Type:            "income",
						TriggerKeywords: []string{"Money received", "已收款", "收款成功"},
						AmountRegex:     []string{`[¥￥]\s*([0-9,]+(?:\.[0-9]{1,2})?)`},
						Category:        "Income",
						Priority:        10,
					},
				},
			},
			{
				PackageName: "com.eg.android.AlipayGphone",
				Rules: []RulePayload{
					{
						Type:            "expense",
						TriggerKeywords: []string{"Payment successful", "付款成功", "支付成功"},
						ExcludeKeywords: []string{"确认付款"},
						AmountRegex:     []string{`[¥￥]\s*([0-9,]+(?:\.[0-9]{1,2})?)`},
						Category:        "Uncategorized",
						Priority:        10,
					},
				},
			},
		},
	}
}
