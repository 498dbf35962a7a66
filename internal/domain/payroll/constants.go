package payroll

const (
	WarningNegativeNet = "negative_net"
	WarningNetVariance = "net_variance"

	MinYear = 1900
	MaxYear = 9999
)
