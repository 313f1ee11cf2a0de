package metrics

import "fmt"

// Interpretation thresholds mirror the conventional value-investing
// reading of each metric. The strings land in Metric.Note.

func interpretROIC(v float64) string {
	switch {
	case v > 0.15:
		return "Excellent: Strong returns on invested capital"
	case v > 0.10:
		return "Good: Above-average capital efficiency"
	case v > 0.05:
		return "Fair: Moderate capital returns"
	default:
		return "Poor: Low returns on invested capital"
	}
}

func interpretGrowth(v float64, label string) string {
	switch {
	case v > 0.15:
		return fmt.Sprintf("Excellent: Strong %s growth", label)
	case v > 0.08:
		return fmt.Sprintf("Good: Solid %s growth", label)
	case v > 0.03:
		return fmt.Sprintf("Fair: Moderate %s growth", label)
	case v > 0:
		return fmt.Sprintf("Weak: Slow %s growth", label)
	default:
		return fmt.Sprintf("Poor: Declining %s", label)
	}
}

func interpretDebtPayoff(years float64) string {
	switch {
	case years < 3:
		return "Excellent: Can pay off debt quickly"
	case years < 5:
		return "Good: Reasonable debt payoff timeline"
	case years < 10:
		return "Fair: Moderate debt burden"
	default:
		return "Poor: High debt burden"
	}
}

func interpretInsiderOwnership(v float64) string {
	switch {
	case v > 0.15:
		return "Excellent: High management alignment"
	case v > 0.05:
		return "Good: Solid insider ownership"
	case v > 0.01:
		return "Fair: Some management ownership"
	default:
		return "Poor: Low insider ownership"
	}
}

func interpretMarginOfSafety(price, mos, sticker float64) string {
	switch {
	case price <= mos:
		return "Excellent: Trading at or below margin of safety"
	case price <= mos*1.2:
		return "Good: Close to margin of safety price"
	case price <= sticker:
		return "Fair: Below intrinsic value but above MOS"
	default:
		return "Poor: Trading above intrinsic value"
	}
}

func interpretMargin(v float64) string {
	switch {
	case v > 0.20:
		return "Excellent: High profit margins"
	case v > 0.10:
		return "Good: Strong profitability"
	case v > 0.05:
		return "Fair: Adequate margins"
	default:
		return "Poor: Low profit margins"
	}
}

func interpretROE(v float64) string {
	switch {
	case v > 0.20:
		return "Excellent: High returns on equity"
	case v > 0.15:
		return "Good: Strong equity returns"
	case v > 0.10:
		return "Fair: Adequate returns"
	default:
		return "Poor: Low equity returns"
	}
}

func interpretDebtRatio(v float64) string {
	switch {
	case v < 2:
		return "Excellent: Low debt burden"
	case v < 3:
		return "Good: Manageable debt levels"
	case v < 4:
		return "Fair: Moderate debt burden"
	default:
		return "Poor: High debt burden"
	}
}

func interpretValuation(v float64, kind string) string {
	switch kind {
	case "PSR":
		switch {
		case v < 1:
			return "Cheap: Low price relative to sales"
		case v < 3:
			return "Fair: Reasonable valuation"
		default:
			return "Expensive: High price relative to sales"
		}
	case "P/E":
		switch {
		case v < 15:
			return "Cheap: Low earnings multiple"
		case v < 25:
			return "Fair: Reasonable valuation"
		default:
			return "Expensive: High earnings multiple"
		}
	case "EV/EBITDA":
		switch {
		case v < 10:
			return "Cheap: Low enterprise value multiple"
		case v < 15:
			return "Fair: Reasonable valuation"
		default:
			return "Expensive: High enterprise value multiple"
		}
	}
	return ""
}

func interpretDividendYield(v float64) string {
	switch {
	case v > 0.04:
		return "High: Strong dividend income"
	case v > 0.02:
		return "Moderate: Decent dividend yield"
	case v > 0:
		return "Low: Small dividend yield"
	default:
		return "None: No dividend payments"
	}
}
