package device

// Keys is the held state of the keys the keyboard adapter listens to.
type Keys struct {
	Left  bool
	Right bool
	Enter bool
	Space bool
	P     bool
}

// KeyReader reports the currently held keys.
type KeyReader interface {
	Keys() Keys
}

// Keyboard maps arrows to full-speed wheels, enter and space to weapons and
// p to a ping request.
type Keyboard struct {
	id     string
	keys   KeyReader
	cur    Snapshot
	lastP  bool
	hasNew bool
	ping   bool
}

var _ Source = (*Keyboard)(nil)

func NewKeyboard(id string, keys KeyReader) *Keyboard {
	if id == "" {
		id = "keyboard"
	}
	return &Keyboard{id: id, keys: keys}
}

func (k *Keyboard) ID() string { return k.id }

func (k *Keyboard) Process() {
	held := k.keys.Keys()
	next := Snapshot{
		Left:        wheel(held.Left),
		Right:       wheel(held.Right),
		FireWeapon1: held.Enter,
		FireWeapon2: held.Space,
	}
	k.hasNew = next != k.cur
	k.cur = next
	if held.P && !k.lastP {
		k.ping = true
	}
	k.lastP = held.P
}

func (k *Keyboard) HasNewValues() bool { return k.hasNew }

func (k *Keyboard) BuildInput() Snapshot { return k.cur }

func (k *Keyboard) ConsumePendingPingRequest() bool {
	pending := k.ping
	k.ping = false
	return pending
}

func wheel(pressed bool) float64 {
	if pressed {
		return 1
	}
	return 0
}
