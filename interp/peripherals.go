package interp

// Peripheral error handling philosophy (mirrors vm/syscall.go in the
// teacher repo):
//
// 1. VM integrity errors (halt execution): accessing a GPIO pin that was
//    never configured with gpio_set. These indicate a program bug, not
//    a recoverable device condition, and are reported as *interp.Error.
//
// 2. Expected operation failures (return a sentinel, keep running):
//    uart_read with an empty receive queue returns 0; a timer that
//    hasn't expired returns 0 from timer_expired. These are normal
//    device states a program is expected to poll for.

// GPIOPin is one configurable digital pin.
type GPIOPin struct {
	Configured bool
	Dir        uint32 // 0 = input, 1 = output
	Mode       uint32
	Value      uint32
}

// UARTState is a single simulated UART: a baud rate and a FIFO of bytes
// written by the peer, readable with uart_read.
type UARTState struct {
	Baud    uint32
	RxQueue []byte
}

// Timer is a single simulated countdown/count-up timer.
type Timer struct {
	Mode    uint32
	Period  uint32
	Value   uint32
	Running bool
}

// Peripherals bundles every memory-mapped device the interpreter
// simulates: GPIO pins, one UART, and a bank of timers (sized per
// [peripherals] in the config file; see config.Config).
type Peripherals struct {
	GPIO   []GPIOPin
	UART   UARTState
	Timers []Timer
}

// NewPeripherals allocates gpioCount pins and timerCount timers, all
// zeroed/unconfigured, matching spec.md §9's "reset to zero on
// construction".
func NewPeripherals(gpioCount, timerCount int) *Peripherals {
	return &Peripherals{
		GPIO:   make([]GPIOPin, gpioCount),
		Timers: make([]Timer, timerCount),
	}
}

func (p *Peripherals) pin(n uint32) (*GPIOPin, bool) {
	if int(n) >= len(p.GPIO) {
		return nil, false
	}
	return &p.GPIO[int(n)], true
}

func (p *Peripherals) timer(n uint32) (*Timer, bool) {
	if int(n) >= len(p.Timers) {
		return nil, false
	}
	return &p.Timers[int(n)], true
}
