package classification

// The marker lists and amount patterns below are fixed and authored with the
// code. They are reviewed like any other source change and are therefore not
// run through the rule-payload safety analyzer.

// defaultIncomeMarkers flag money entering the account.
func defaultIncomeMarkers() []string {
	return []string{
		"money received",
		"payment received",
		"transfer received",
		"you received",
		"收款成功",
		"已收款",
		"收钱到账",
		"入账",
	}
}

// defaultExpenseMarkers flag money leaving the account.
func defaultExpenseMarkers() []string {
	return []string{
		"payment successful",
		"paid successfully",
		"payment complete",
		"deducted",
		"支付成功",
		"付款成功",
		"扣款成功",
		"消费",
	}
}

// defaultTransferMarkers flag outgoing transfers and red packets, recorded
// as expenses under the Transfer category.
func defaultTransferMarkers() []string {
	return []string{
		"sent a transfer",
		"transfer sent",
		"sent a red packet",
		"red packet sent",
		"转账成功",
		"已转账",
		"发出红包",
	}
}

// defaultAmountPatterns extract a monetary amount from snapshot text, most
// specific first. Each pattern has exactly one capture group.
func defaultAmountPatterns() []string {
	return []string{
		`[¥￥]\s*([0-9,]+(?:\.[0-9]{1,2})?)`,
		`[$€£]\s*([0-9,]+(?:\.[0-9]{1,2})?)`,
		`(?i)(?:amount|金额)[::]?\s*([0-9,]+(?:\.[0-9]{1,2})?)`,
		`(?m)^\s*([0-9,]+\.[0-9]{2})\s*$`,
	}
}
