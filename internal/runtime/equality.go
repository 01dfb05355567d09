package runtime

// Eq implements `eq?`. Immediate values (booleans, characters, symbols, the
// empty list, the unspecified value) compare by content; everything else
// compares by Go pointer identity, which is exactly how two heap-allocated
// pairs/vectors/strings/closures can only be eq? if they are the same
// allocation.
//
// Numbers are deliberately routed through Eqv rather than pointer identity:
// R7RS leaves eq? on numbers implementation-defined, and treating freshly
// unboxed equal numbers as eq? is friendlier than surprising callers with
// false for `(eq? 2 2)` on a fast path that happens to allocate.
func Eq(a, b Value) bool {
	switch x := a.(type) {
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case Char:
		y, ok := b.(Char)
		return ok && x == y
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x.ID == y.ID
	case Null:
		_, ok := b.(Null)
		return ok
	case Unspecified:
		_, ok := b.(Unspecified)
		return ok
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case EOFObject:
		_, ok := b.(EOFObject)
		return ok
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Exact == y.Exact && x.Kind == y.Kind && NumEqual(x, y)
	default:
		return a == b
	}
}

// Eqv implements `eqv?`. It coincides with Eq here: characters are
// treated as immediate values under both predicates.
func Eqv(a, b Value) bool { return Eq(a, b) }

// Equal implements `equal?`: structural equality that recurses through
// pairs, vectors, bytevectors, and strings, falling back to Eqv everywhere
// else.
func Equal(a, b Value) bool {
	if Eq(a, b) {
		return true
	}
	switch x := a.(type) {
	case *String:
		y, ok := b.(*String)
		return ok && string(x.Runes) == string(y.Runes)
	case *Pair:
		y, ok := b.(*Pair)
		return ok && Equal(x.Car, y.Car) && Equal(x.Cdr, y.Cdr)
	case *Vector:
		y, ok := b.(*Vector)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Bytevector:
		y, ok := b.(*Bytevector)
		if !ok || len(x.Bytes) != len(y.Bytes) {
			return false
		}
		for i := range x.Bytes {
			if x.Bytes[i] != y.Bytes[i] {
				return false
			}
		}
		return true
	}
	return false
}
