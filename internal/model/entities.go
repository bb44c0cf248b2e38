package model

// Entities represents structured fields extracted from a free-text message.
// A nil/empty field means the pattern for that slot did not match.
type Entities struct {
	Tipo           *string         `json:"tipo,omitempty"`
	Habitaciones   *int            `json:"habitaciones,omitempty"`
	Banos          *int            `json:"banos,omitempty"`
	PrecioArriendo *int64          `json:"precio_arriendo,omitempty"`
	PrecioVenta    *int64          `json:"precio_venta,omitempty"`
	Amenidades     map[string]bool `json:"amenidades,omitempty"`
	Direccion      *string         `json:"direccion,omitempty"`
	Comuna         *string         `json:"comuna,omitempty"`
	Fecha          *string         `json:"fecha,omitempty"` // ISO calendar date, no time component
}

// IsEmpty reports whether no slot was extracted.
func (e *Entities) IsEmpty() bool {
	return e.Tipo == nil && e.Habitaciones == nil && e.Banos == nil &&
		e.PrecioArriendo == nil && e.PrecioVenta == nil &&
		len(e.Amenidades) == 0 && e.Direccion == nil && e.Comuna == nil &&
		e.Fecha == nil
}

// Merge applies a newer turn's extraction on top of e: non-empty fields
// overwrite, amenity flags union. Previously filled slots are never removed.
func (e *Entities) Merge(newer *Entities) {
	if newer == nil {
		return
	}
	if newer.Tipo != nil {
		e.Tipo = newer.Tipo
	}
	if newer.Habitaciones != nil {
		e.Habitaciones = newer.Habitaciones
	}
	if newer.Banos != nil {
		e.Banos = newer.Banos
	}
	if newer.PrecioArriendo != nil {
		e.PrecioArriendo = newer.PrecioArriendo
	}
	if newer.PrecioVenta != nil {
		e.PrecioVenta = newer.PrecioVenta
	}
	if len(newer.Amenidades) > 0 {
		if e.Amenidades == nil {
			e.Amenidades = make(map[string]bool, len(newer.Amenidades))
		}
		for k, v := range newer.Amenidades {
			e.Amenidades[k] = v
		}
	}
	if newer.Direccion != nil {
		e.Direccion = newer.Direccion
	}
	if newer.Comuna != nil {
		e.Comuna = newer.Comuna
	}
	if newer.Fecha != nil {
		e.Fecha = newer.Fecha
	}
}

// Clone returns a deep copy, so a snapshot handed to callers cannot be
// mutated by later merges.
func (e *Entities) Clone() *Entities {
	c := *e
	if e.Amenidades != nil {
		c.Amenidades = make(map[string]bool, len(e.Amenidades))
		for k, v := range e.Amenidades {
			c.Amenidades[k] = v
		}
	}
	return &c
}
