package cpu

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	"github.com/nescore/6502/memory"
)

// newTestChip builds a Chip over a FlatRAM loaded with program at 0x8000
// and configured to enter there directly, bypassing the reset vector. This
// matches the teacher's hand-assembled-byte-sequence test convention: no
// external .nes fixtures.
func newTestChip(t *testing.T, program []byte) (*Chip, *memory.FlatRAM) {
	t.Helper()
	ram := memory.NewFlatRAM(0xEA) // fill with NOP
	for i, b := range program {
		if err := ram.Write(0x8000+uint16(i), b); err != nil {
			t.Fatalf("loading program: %v", err)
		}
	}
	entry := uint16(0x8000)
	c, err := Init(&ChipDef{Ram: ram, DebugEntry: &entry})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c, ram
}

// runToHalt steps c until it halts or a fatal error occurs, bailing out
// after a generous instruction budget so a dispatch bug can't hang the
// test suite.
func runToHalt(t *testing.T, c *Chip) error {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if c.Halted {
			return nil
		}
		if _, err := c.Step(); err != nil {
			return err
		}
	}
	t.Fatalf("CPU did not halt within instruction budget; state: %s", spew.Sdump(c))
	return nil
}

func TestConcreteScenarios(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		setup   func(c *Chip)
		wantA   uint8
		wantX   uint8
		wantC   bool
		wantV   bool
		wantN   bool
		wantZ   bool
	}{
		{
			name:    "ADC no carry no overflow",
			program: []byte{0xA9, 0x10, 0x69, 0x20, 0x02},
			setup:   func(c *Chip) { c.A = 0x50; c.FlagC = false },
			wantA:   0x30,
		},
		{
			name:    "ADC overflow into negative",
			program: []byte{0xA9, 0x50, 0x69, 0x50, 0x02},
			wantA:   0xA0,
			wantV:   true,
			wantN:   true,
		},
		{
			name:    "ADC carry out, wraps to zero",
			program: []byte{0xA9, 0xFF, 0x69, 0x01, 0x02},
			wantA:   0x00,
			wantC:   true,
			wantZ:   true,
		},
		{
			name:    "LDX then LDA from zero page",
			program: []byte{0xA2, 0x03, 0xA5, 0x20, 0x02},
			setup:   func(c *Chip) {},
			wantA:   0x42,
			wantX:   0x03,
		},
		{
			name: "JSR into a subroutine that halts itself",
			program: []byte{
				0x20, 0x06, 0x80, // JSR $8006
				0x02,             // HALT (never reached)
				0x00, 0x00,       // padding
				0xA9, 0x77, 0x02, // LDA #$77; HALT
			},
			wantA: 0x77,
		},
		{
			name:    "branch taken skips the first LDA",
			program: []byte{0xF0, 0x03, 0xA9, 0x11, 0x02, 0xA9, 0x22, 0x02},
			setup:   func(c *Chip) { c.FlagZ = true },
			wantA:   0x22,
			wantZ:   false, // LDA #$22 clears Z after the branch is taken
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, ram := newTestChip(t, test.program)
			if test.name == "LDX then LDA from zero page" {
				if err := ram.Write(0x0020, 0x42); err != nil {
					t.Fatalf("Write: %v", err)
				}
			}
			if test.setup != nil {
				test.setup(c)
			}
			if err := runToHalt(t, c); err != nil {
				t.Fatalf("runToHalt: %v\nstate: %s", err, spew.Sdump(c))
			}
			if c.A != test.wantA {
				t.Errorf("A = 0x%02X, want 0x%02X", c.A, test.wantA)
			}
			if test.wantX != 0 && c.X != test.wantX {
				t.Errorf("X = 0x%02X, want 0x%02X", c.X, test.wantX)
			}
			if c.FlagC != test.wantC {
				t.Errorf("FlagC = %v, want %v", c.FlagC, test.wantC)
			}
			if c.FlagV != test.wantV {
				t.Errorf("FlagV = %v, want %v", c.FlagV, test.wantV)
			}
			if c.FlagN != test.wantN {
				t.Errorf("FlagN = %v, want %v", c.FlagN, test.wantN)
			}
			if c.FlagZ != test.wantZ {
				t.Errorf("FlagZ = %v, want %v", c.FlagZ, test.wantZ)
			}
		})
	}
}

func TestADCAlgebraicProperties(t *testing.T) {
	for a := 0; a < 256; a += 17 {
		for m := 0; m < 256; m += 23 {
			for _, carryIn := range []bool{false, true} {
				c, _ := newTestChip(t, []byte{0x02})
				c.A = uint8(a)
				c.FlagC = carryIn
				var carry uint16
				if carryIn {
					carry = 1
				}
				c.adc(uint8(m))

				want := uint16(a) + uint16(m) + carry
				got := uint16(c.A)
				if c.FlagC {
					got += 256
				}
				if got != want {
					t.Fatalf("ADC(A=%d,M=%d,C=%v): A'+256*C' = %d, want %d", a, m, carryIn, got, want)
				}

				sameSign := (uint8(a)^uint8(m))&0x80 == 0
				resultSignDiffers := (uint8(a)^c.A)&0x80 != 0
				wantOverflow := sameSign && resultSignDiffers
				if c.FlagV != wantOverflow {
					t.Errorf("ADC(A=%d,M=%d,C=%v): FlagV = %v, want %v", a, m, carryIn, c.FlagV, wantOverflow)
				}
			}
		}
	}
}

func TestBranchCycleCosts(t *testing.T) {
	tests := []struct {
		name       string
		cond       bool
		pcBefore   uint16
		disp       uint8
		wantCycles int
	}{
		{"not taken", false, 0x8010, 0x10, 2},
		{"taken same page", true, 0x8010, 0x10, 3},
		{"taken crosses page", true, 0x80F0, 0x20, 4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ram := memory.NewFlatRAM(0)
			if err := ram.Write(test.pcBefore, test.disp); err != nil {
				t.Fatalf("Write: %v", err)
			}
			entry := test.pcBefore
			c, err := Init(&ChipDef{Ram: ram, DebugEntry: &entry})
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			got := c.branch(test.cond)
			if got != test.wantCycles {
				t.Errorf("branch() cycles = %d, want %d", got, test.wantCycles)
			}
		})
	}
}

func TestStackRoundTrip(t *testing.T) {
	for _, b := range []uint8{0x00, 0x42, 0xFF, 0x80} {
		c, _ := newTestChip(t, []byte{0x02})
		before := c.SP
		if err := c.push(b); err != nil {
			t.Fatalf("push: %v", err)
		}
		got := c.pull()
		if got != b {
			t.Errorf("push(0x%02X); pull() = 0x%02X, want 0x%02X", b, got, b)
		}
		if c.SP != before {
			t.Errorf("SP after push/pull = 0x%02X, want 0x%02X (pre-push)", c.SP, before)
		}
	}
}

// flagSnapshot captures just the six flags, so a round-trip mismatch can be
// diffed without reflecting into Chip's unexported collaborator fields.
type flagSnapshot struct {
	N, V, D, I, Z, C bool
}

func TestStatusRoundTrip(t *testing.T) {
	c, _ := newTestChip(t, []byte{0x02})
	c.FlagN, c.FlagV, c.FlagD, c.FlagI, c.FlagZ, c.FlagC = true, false, true, false, true, true
	want := flagSnapshot{c.FlagN, c.FlagV, c.FlagD, c.FlagI, c.FlagZ, c.FlagC}

	if err := c.pushStatus(true); err != nil {
		t.Fatalf("pushStatus: %v", err)
	}
	c.FlagN, c.FlagV, c.FlagD, c.FlagI, c.FlagZ, c.FlagC = false, false, false, false, false, false
	c.pullStatus()
	got := flagSnapshot{c.FlagN, c.FlagV, c.FlagD, c.FlagI, c.FlagZ, c.FlagC}

	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("status round-trip mismatch: %v\nfull state: %s", diff, spew.Sdump(c))
	}
}

func TestRAMMirroringThroughCPU(t *testing.T) {
	prg := make([]byte, 0x8000)
	b, err := memory.NewNESBus(prg, nil)
	if err != nil {
		t.Fatalf("NewNESBus: %v", err)
	}
	entry := uint16(0x8000)
	c, err := Init(&ChipDef{Ram: b, DebugEntry: &entry})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.write(0x0055, 0x99); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := b.Read(0x0855); got != 0x99 {
		t.Errorf("Read(0x0855) = 0x%02X, want 0x99 (mirror of 0x0055)", got)
	}
}

func TestRomWriteFaultPropagates(t *testing.T) {
	prg := make([]byte, 0x8000)
	// STA $9000 at $8000 — a store into ROM must fault. The program goes into
	// the PRG image because the bus rejects writes to $8000-$FFFF.
	prg[0], prg[1], prg[2] = 0x8D, 0x00, 0x90
	b, err := memory.NewNESBus(prg, nil)
	if err != nil {
		t.Fatalf("NewNESBus: %v", err)
	}
	entry := uint16(0x8000)
	c, err := Init(&ChipDef{Ram: b, DebugEntry: &entry})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := b.Read(0x8000); got != 0x8D {
		t.Fatalf("Read(0x8000) = 0x%02X, want 0x8D", got)
	}
	if got := b.Read(0x8001); got != 0x00 {
		t.Fatalf("Read(0x8001) = 0x%02X, want 0x00", got)
	}
	if got := b.Read(0x8002); got != 0x90 {
		t.Fatalf("Read(0x8002) = 0x%02X, want 0x90", got)
	}
	_, err = c.Step()
	if err == nil {
		t.Fatal("Step() = nil error, want RomWriteFault")
	}
	if _, ok := err.(memory.RomWriteFault); !ok {
		t.Errorf("Step() error type = %T, want memory.RomWriteFault", err)
	}
}

func TestUnknownOpcodeIsFatal(t *testing.T) {
	c, _ := newTestChip(t, []byte{0x03}) // SLO (izx) - undocumented, must be fatal
	_, err := c.Step()
	if err == nil {
		t.Fatal("Step() = nil error, want UnknownOpcode")
	}
	uo, ok := err.(UnknownOpcode)
	if !ok {
		t.Fatalf("Step() error type = %T, want UnknownOpcode", err)
	}
	if uo.Opcode != 0x03 {
		t.Errorf("UnknownOpcode.Opcode = 0x%02X, want 0x03", uo.Opcode)
	}
}

type mockSender struct {
	raised bool
}

func (m *mockSender) Raised() bool { return m.raised }

func TestIRQSequenceRespectsInterruptDisable(t *testing.T) {
	ram := memory.NewFlatRAM(0xEA)
	ram.Write(0xFFFE, 0x00)
	ram.Write(0xFFFF, 0xD0)
	entry := uint16(0x8000)
	irqSrc := &mockSender{raised: true}
	c, err := Init(&ChipDef{Ram: ram, Irq: irqSrc, DebugEntry: &entry})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.FlagI = true
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC == 0xD000 {
		t.Errorf("IRQ ran with FlagI set; PC = 0x%04X", c.PC)
	}

	c.FlagI = false
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC != 0xD000 {
		t.Errorf("PC after IRQ = 0x%04X, want 0xD000", c.PC)
	}
	if !c.FlagI {
		t.Error("FlagI not set after entering IRQ handler")
	}
}

func TestNMIAlwaysRuns(t *testing.T) {
	ram := memory.NewFlatRAM(0xEA)
	ram.Write(0xFFFA, 0x00)
	ram.Write(0xFFFB, 0xC0)
	entry := uint16(0x8000)
	nmiSrc := &mockSender{raised: true}
	c, err := Init(&ChipDef{Ram: ram, Nmi: nmiSrc, DebugEntry: &entry})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.FlagI = true
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC != 0xC000 {
		t.Errorf("PC after NMI = 0x%04X, want 0xC000 (NMI must not be masked by FlagI)", c.PC)
	}
}
