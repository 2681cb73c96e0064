package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// operand is one parsed textual operand: either a bare immediate, an
// fp-relative offset ("N(fp)"), or an unresolved label reference.
type operand struct {
	value   int32
	isFP    bool
	label   string
	isLabel bool
}

func parseOperand(tok string) (operand, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return operand{}, fmt.Errorf("isa: empty operand")
	}
	if strings.HasSuffix(tok, "(fp)") {
		n, err := strconv.ParseInt(strings.TrimSuffix(tok, "(fp)"), 10, 32)
		if err != nil {
			return operand{}, fmt.Errorf("isa: bad fp offset %q: %w", tok, err)
		}
		return operand{value: int32(n), isFP: true}, nil
	}
	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return operand{value: int32(n)}, nil
	}
	return operand{label: tok, isLabel: true}, nil
}

// line is one parsed, not-yet-resolved source line: an optional label
// definition and an optional instruction with its raw operand tokens.
type line struct {
	label   string
	mnemonic string
	operands []string
	lineNo   int
}

func splitLines(src string) []line {
	var out []line
	for i, raw := range strings.Split(src, "\n") {
		text := raw
		if idx := strings.Index(text, ";"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		l := line{lineNo: i + 1}
		if idx := strings.Index(text, ":"); idx >= 0 && !strings.Contains(text[:idx], " ") {
			l.label = strings.TrimSpace(text[:idx])
			text = strings.TrimSpace(text[idx+1:])
			if text == "" {
				out = append(out, l)
				continue
			}
		}
		fields := strings.SplitN(text, " ", 2)
		l.mnemonic = strings.ToLower(strings.TrimSpace(fields[0]))
		if len(fields) == 2 {
			for _, opnd := range strings.Split(fields[1], ",") {
				opnd = strings.TrimSpace(opnd)
				if opnd != "" {
					l.operands = append(l.operands, opnd)
				}
			}
		}
		out = append(out, l)
	}
	return out
}

// Assemble parses the line-oriented text grammar of spec.md §6 into a
// Program: `label:` lines record the following instruction's address,
// `mnemonic op0, op1, ...` lines assemble to one 24-byte instruction.
// Operands written as "N(fp)" are frame-relative offsets; bare integers are
// immediates; bare identifiers are label references resolved to a byte
// address (pc * BytesPerInstr), matching how the original assembler prints
// jump and branch targets as PC * 24.
func Assemble(src string) (Program, error) {
	lines := splitLines(src)

	labels := make(map[string]int32)
	pc := 0
	for _, l := range lines {
		if l.label != "" {
			if _, dup := labels[l.label]; dup {
				return Program{}, fmt.Errorf("isa: line %d: duplicate label %q", l.lineNo, l.label)
			}
			labels[l.label] = int32(pc) * BytesPerInstr
		}
		if l.mnemonic != "" {
			pc++
		}
	}

	var instrs []Instruction
	for _, l := range lines {
		if l.mnemonic == "" {
			continue
		}
		instr, err := assembleLine(l, labels)
		if err != nil {
			return Program{}, err
		}
		instrs = append(instrs, instr)
	}
	return Program{Instructions: instrs}, nil
}

func resolve(op operand, labels map[string]int32, lineNo int) (int32, error) {
	if !op.isLabel {
		return op.value, nil
	}
	addr, ok := labels[op.label]
	if !ok {
		return 0, fmt.Errorf("isa: line %d: undefined label %q", lineNo, op.label)
	}
	return addr, nil
}

func assembleLine(l line, labels map[string]int32) (Instruction, error) {
	name := l.mnemonic
	if base, ok := arithmeticImmediateForms[name]; ok {
		return assembleArithmetic(l, base, labels)
	}

	op, ok := LookupMnemonic(name)
	if !ok {
		return Instruction{}, fmt.Errorf("isa: line %d: unknown mnemonic %q", l.lineNo, name)
	}

	parsed := make([]operand, len(l.operands))
	for i, tok := range l.operands {
		o, err := parseOperand(tok)
		if err != nil {
			return Instruction{}, fmt.Errorf("isa: line %d: %w", l.lineNo, err)
		}
		parsed[i] = o
	}

	switch op {
	case LOAD32, LOADU8, LOADS8:
		return need2(l, parsed, labels, func(a, c int32) Instruction {
			return Instruction{Opcode: op, A: a, C: c}
		})
	case STORE32, STOREU8:
		return need2(l, parsed, labels, func(b, c int32) Instruction {
			return Instruction{Opcode: op, B: b, C: c}
		})
	case IMM32:
		return assembleImm32(l, parsed, labels)
	case JAL:
		return need3(l, parsed, labels, func(a, b, c int32) Instruction {
			return Instruction{Opcode: JAL, A: a, B: b, C: c}
		})
	case JALV:
		return need3(l, parsed, labels, func(a, b, c int32) Instruction {
			return Instruction{Opcode: JALV, A: a, B: b, C: c}
		})
	case BEQ, BNE:
		return assembleBranch(l, op, parsed, labels)
	case LOADFP:
		return need2(l, parsed, labels, func(a, b int32) Instruction {
			return Instruction{Opcode: LOADFP, A: a, B: b}
		})
	case STOP:
		if len(parsed) != 0 {
			return Instruction{}, fmt.Errorf("isa: line %d: stop takes no operands", l.lineNo)
		}
		return Instruction{Opcode: STOP}, nil
	case READ_ADVICE:
		return need1(l, parsed, labels, func(a int32) Instruction {
			return Instruction{Opcode: READ_ADVICE, A: a}
		})
	case WRITE:
		return need1(l, parsed, labels, func(a int32) Instruction {
			return Instruction{Opcode: WRITE, A: a}
		})
	default:
		return assembleArithmetic(l, op, labels)
	}
}

func need1(l line, parsed []operand, labels map[string]int32, build func(int32) Instruction) (Instruction, error) {
	if len(parsed) != 1 {
		return Instruction{}, fmt.Errorf("isa: line %d: %s takes 1 operand, got %d", l.lineNo, l.mnemonic, len(parsed))
	}
	a, err := resolve(parsed[0], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	return build(a), nil
}

func need2(l line, parsed []operand, labels map[string]int32, build func(int32, int32) Instruction) (Instruction, error) {
	if len(parsed) != 2 {
		return Instruction{}, fmt.Errorf("isa: line %d: %s takes 2 operands, got %d", l.lineNo, l.mnemonic, len(parsed))
	}
	a, err := resolve(parsed[0], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	b, err := resolve(parsed[1], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	return build(a, b), nil
}

func need3(l line, parsed []operand, labels map[string]int32, build func(int32, int32, int32) Instruction) (Instruction, error) {
	if len(parsed) != 3 {
		return Instruction{}, fmt.Errorf("isa: line %d: %s takes 3 operands, got %d", l.lineNo, l.mnemonic, len(parsed))
	}
	a, err := resolve(parsed[0], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	b, err := resolve(parsed[1], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	c, err := resolve(parsed[2], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	return build(a, b, c), nil
}

// assembleArithmetic handles the uniform "a(fp), b(fp), c(fp|imm)" shape
// shared by every ALU and native-field opcode (spec.md §6 default case):
// the third operand's syntax (immediate vs fp-relative) sets the e flag.
func assembleArithmetic(l line, op Opcode, labels map[string]int32) (Instruction, error) {
	if len(l.operands) != 3 {
		return Instruction{}, fmt.Errorf("isa: line %d: %s takes 3 operands, got %d", l.lineNo, l.mnemonic, len(l.operands))
	}
	parsed := make([]operand, 3)
	for i, tok := range l.operands {
		o, err := parseOperand(tok)
		if err != nil {
			return Instruction{}, fmt.Errorf("isa: line %d: %w", l.lineNo, err)
		}
		parsed[i] = o
	}
	a, err := resolve(parsed[0], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	b, err := resolve(parsed[1], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	c, err := resolve(parsed[2], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	instr := Instruction{Opcode: op, A: a, B: b, C: c}
	if !parsed[2].isFP {
		instr.E = 1
	}
	return instr, nil
}

func assembleBranch(l line, op Opcode, parsed []operand, labels map[string]int32) (Instruction, error) {
	if len(parsed) != 3 {
		return Instruction{}, fmt.Errorf("isa: line %d: %s takes 3 operands, got %d", l.lineNo, l.mnemonic, len(parsed))
	}
	target, err := resolve(parsed[0], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	b, err := resolve(parsed[1], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	c, err := resolve(parsed[2], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	instr := Instruction{Opcode: op, A: target, B: b, C: c}
	if !parsed[2].isFP {
		instr.E = 1
	}
	return instr, nil
}

// assembleImm32 packs a 32-bit constant into the four high operand slots,
// most significant byte first, mirroring print_imm32's
// "imm0<<24 | imm1<<16 | imm2<<8 | imm3" reconstruction in the original
// assembler/emitter.
func assembleImm32(l line, parsed []operand, labels map[string]int32) (Instruction, error) {
	if len(parsed) != 2 {
		return Instruction{}, fmt.Errorf("isa: line %d: imm32 takes 2 operands, got %d", l.lineNo, len(parsed))
	}
	a, err := resolve(parsed[0], labels, l.lineNo)
	if err != nil {
		return Instruction{}, err
	}
	if parsed[1].isLabel {
		return Instruction{}, fmt.Errorf("isa: line %d: imm32 immediate cannot be a label", l.lineNo)
	}
	v := uint32(parsed[1].value)
	return Instruction{
		Opcode: IMM32,
		A:      a,
		B:      int32(byte(v >> 24)),
		C:      int32(byte(v >> 16)),
		D:      int32(byte(v >> 8)),
		E:      int32(byte(v)),
	}, nil
}
