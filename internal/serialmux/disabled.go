package serialmux

// DisabledBridge is the Link used when no board hardware is attached (for
// running the server without a device). Every link operation fails with
// ErrNotConnected; nothing is silently dropped, so a misconfigured
// deployment surfaces immediately instead of playing a phantom game.
type DisabledBridge struct{}

func NewDisabledBridge() *DisabledBridge { return &DisabledBridge{} }

func (d *DisabledBridge) Send(string) error { return ErrNotConnected }

func (d *DisabledBridge) Request(string) (string, error) { return "", ErrNotConnected }

func (d *DisabledBridge) Close() error { return nil }
