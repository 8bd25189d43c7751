package defs

import (
	"github.com/dimc-lang/dimc/internal/compiler/exponent"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
)

// Expand materializes the template into its (prefixes+1) x (aliases+1)
// concrete entries. The order is prefix-major with the unprefixed and
// unaliased variants first, so the canonical entry always comes first.
func (t UnitTemplate) Expand() []UnitEntry {
	prefixes := make([]*Prefix, 0, len(t.Prefixes)+1)
	prefixes = append(prefixes, nil)
	for i := range t.Prefixes {
		prefixes = append(prefixes, &t.Prefixes[i])
	}

	aliases := make([]*Alias, 0, len(t.Aliases)+1)
	aliases = append(aliases, nil)
	for i := range t.Aliases {
		aliases = append(aliases, &t.Aliases[i])
	}

	entries := make([]UnitEntry, 0, len(prefixes)*len(aliases))
	for _, prefix := range prefixes {
		for _, alias := range aliases {
			entries = append(entries, t.expandOne(prefix, alias))
		}
	}
	return entries
}

func (t UnitTemplate) expandOne(prefix *Prefix, alias *Alias) UnitEntry {
	entry := UnitEntry{
		Name:                t.formatName(prefix, alias),
		Symbol:              t.formatSymbol(prefix, alias),
		DimensionAnnotation: t.DimensionAnnotation,
		Definition:          t.definitionFor(prefix, alias),
	}
	if prefix != nil || alias != nil {
		from := t.Name
		entry.AutogeneratedFrom = &from
	}
	return entry
}

// formatName concatenates the prefix name with the alias or template name.
func (t UnitTemplate) formatName(prefix *Prefix, alias *Alias) Ident {
	name := t.Name
	if alias != nil {
		name = alias.Name
	}
	if prefix != nil {
		name.Name = prefix.Name + name.Name
	}
	return name
}

// formatSymbol assigns symbols only to unaliased entries, so aliases never
// produce duplicate symbols.
func (t UnitTemplate) formatSymbol(prefix *Prefix, alias *Alias) *Symbol {
	if alias != nil || t.Symbol == nil {
		return nil
	}
	symbol := *t.Symbol
	if prefix != nil {
		symbol.Text = prefix.Short + symbol.Text
	}
	return &symbol
}

// definitionFor keeps the original definition on the canonical entry and
// defines every other entry as `factor * template`.
func (t UnitTemplate) definitionFor(prefix *Prefix, alias *Alias) UnitDefinition {
	if prefix == nil && alias == nil {
		return t.Definition
	}
	factor := 1.0
	if prefix != nil {
		factor = prefix.Factor
	}
	return UnitDefinition{
		Expr: expr.Times(
			expr.Value[Atom[float64], exponent.Exponent](Concrete(factor)),
			expr.Value[Atom[float64], exponent.Exponent](Ref[float64](t.Name)),
		),
	}
}

// ExpandTemplates expands every unit template in declaration order.
func (u *UnresolvedTemplates) ExpandTemplates() *UnresolvedDefs {
	units := make([]UnitEntry, 0, len(u.Units))
	for _, template := range u.Units {
		units = append(units, template.Expand()...)
	}
	return &UnresolvedDefs{
		QuantityType:  u.QuantityType,
		DimensionType: u.DimensionType,
		Dimensions:    u.Dimensions,
		Units:         units,
		Constants:     u.Constants,
	}
}
