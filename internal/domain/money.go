package domain

import "strconv"

// Money is an amount in minor currency units (e.g. cents).
type Money int64

// String formats m as major.minor with two decimal places, e.g. 1250 -> "12.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	minor := v % 100
	pad := ""
	if minor < 10 {
		pad = "0"
	}
	return sign + strconv.FormatInt(v/100, 10) + "." + pad + strconv.FormatInt(minor, 10)
}

// Times returns m multiplied by n.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// Percent returns pct percent of m rounded half to even, in minor units.
func (m Money) Percent(pct int64) Money {
	num := int64(m) * pct
	q, r := num/100, num%100
	if r < 0 {
		r = -r
	}
	switch {
	case 2*r > 100:
		q += sign(num)
	case 2*r == 100 && q%2 != 0:
		q += sign(num)
	}
	return Money(q)
}

func sign(v int64) int64 {
	if v < 0 {
		return -1
	}
	return 1
}
