package defs

import "math"

// MetricPrefixes are the SI prefixes, largest first.
var MetricPrefixes = []Prefix{
	{Name: "quetta", Short: "Q", Factor: 1e30},
	{Name: "ronna", Short: "R", Factor: 1e27},
	{Name: "yotta", Short: "Y", Factor: 1e24},
	{Name: "zetta", Short: "Z", Factor: 1e21},
	{Name: "exa", Short: "E", Factor: 1e18},
	{Name: "peta", Short: "P", Factor: 1e15},
	{Name: "tera", Short: "T", Factor: 1e12},
	{Name: "giga", Short: "G", Factor: 1e9},
	{Name: "mega", Short: "M", Factor: 1e6},
	{Name: "kilo", Short: "k", Factor: 1e3},
	{Name: "hecto", Short: "h", Factor: 1e2},
	{Name: "deca", Short: "da", Factor: 1e1},
	{Name: "deci", Short: "d", Factor: 1e-1},
	{Name: "centi", Short: "c", Factor: 1e-2},
	{Name: "milli", Short: "m", Factor: 1e-3},
	{Name: "micro", Short: "μ", Factor: 1e-6},
	{Name: "nano", Short: "n", Factor: 1e-9},
	{Name: "pico", Short: "p", Factor: 1e-12},
	{Name: "femto", Short: "f", Factor: 1e-15},
	{Name: "atto", Short: "a", Factor: 1e-18},
	{Name: "zepto", Short: "z", Factor: 1e-21},
	{Name: "yocto", Short: "y", Factor: 1e-24},
	{Name: "ronto", Short: "r", Factor: 1e-27},
	{Name: "quecto", Short: "q", Factor: 1e-30},
}

// BinaryPrefixes are the IEC powers of 1024.
var BinaryPrefixes = []Prefix{
	{Name: "kibi", Short: "Ki", Factor: math.Pow(1024, 1)},
	{Name: "mebi", Short: "Mi", Factor: math.Pow(1024, 2)},
	{Name: "gibi", Short: "Gi", Factor: math.Pow(1024, 3)},
	{Name: "tebi", Short: "Ti", Factor: math.Pow(1024, 4)},
	{Name: "pebi", Short: "Pi", Factor: math.Pow(1024, 5)},
	{Name: "exbi", Short: "Ei", Factor: math.Pow(1024, 6)},
	{Name: "zebi", Short: "Zi", Factor: math.Pow(1024, 7)},
	{Name: "yobi", Short: "Yi", Factor: math.Pow(1024, 8)},
}

// LookupPrefix finds a built-in metric or binary prefix by name.
func LookupPrefix(name string) (Prefix, bool) {
	for _, table := range [][]Prefix{MetricPrefixes, BinaryPrefixes} {
		for _, p := range table {
			if p.Name == name {
				return p, true
			}
		}
	}
	return Prefix{}, false
}
