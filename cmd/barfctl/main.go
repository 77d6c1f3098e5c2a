// Command barfctl is a debug/inspection CLI over the lifter,
// emulator, and SMT layer, grounded structurally on
// cmd/z80opt/main.go's cobra command tree (one subcommand per
// pipeline stage, flag-configured RunE closures, plain fmt output).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oisee/barfgo/pkg/arch/x86"
	"github.com/oisee/barfgo/pkg/emu"
	"github.com/oisee/barfgo/pkg/ir"
	"github.com/oisee/barfgo/pkg/smt"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "barfctl",
		Short: "Inspect the lifter, emulator, and SMT layer from the command line",
	}

	var liftArch string
	liftCmd := &cobra.Command{
		Use:   "lift [mnemonic operand,operand,...]",
		Short: "Lift a single native instruction and print its IR sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := liftLine(liftArch, strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, instr := range seq {
				fmt.Println(instr.String())
			}
			return nil
		},
	}
	liftCmd.Flags().StringVar(&liftArch, "arch", "x86", "Source architecture (x86)")

	var emuFile string
	emulateCmd := &cobra.Command{
		Use:   "emulate",
		Short: "Emulate an IR program (one textual instruction per line) and print final state",
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := readIRProgram(emuFile)
			if err != nil {
				return err
			}
			result, err := emu.ExecuteLite(seq, emu.Options{
				Aliases:      x86.Aliases,
				BaseWidths:   x86.BaseWidths,
				FillByte:     0,
				AddressWidth: x86.AddressWidth,
			})
			if err != nil {
				return fmt.Errorf("emulate: %w", err)
			}
			printResult(result)
			return nil
		},
	}
	emulateCmd.Flags().StringVar(&emuFile, "program", "", "Path to an IR program file (defaults to stdin)")

	var smtFile string
	var showNames []string
	smtCheckCmd := &cobra.Command{
		Use:   "smt-check",
		Short: "Translate an IR program to SMT-LIB v2, assert it, and check satisfiability",
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := readIRProgram(smtFile)
			if err != nil {
				return err
			}
			sup, err := smt.NewSupervisor()
			if err != nil {
				return fmt.Errorf("smt-check: starting solver: %w", err)
			}
			defer sup.Close()

			tr := smt.NewTranslator(sup, x86.Aliases, x86.BaseWidths, x86.AddressWidth)
			if err := tr.Translate(seq); err != nil {
				return fmt.Errorf("smt-check: translate: %w", err)
			}

			status, err := sup.Check()
			if err != nil {
				return fmt.Errorf("smt-check: check: %w", err)
			}
			fmt.Println(status)

			if status == smt.StatusSat {
				for _, name := range showNames {
					v, err := sup.GetValue(name)
					if err != nil {
						fmt.Fprintf(os.Stderr, "  %s: %v\n", name, err)
						continue
					}
					fmt.Printf("  %s = %s\n", name, v.String())
				}
			}
			return nil
		},
	}
	smtCheckCmd.Flags().StringVar(&smtFile, "program", "", "Path to an IR program file (defaults to stdin)")
	smtCheckCmd.Flags().StringSliceVar(&showNames, "show", nil, "SSA symbol names to print with get-value (requires sat)")

	rootCmd.AddCommand(liftCmd, emulateCmd, smtCheckCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// liftLine lifts one line of the form "mnemonic op0,op1,op2" against
// the requested architecture, resolving bare operand tokens as x86
// registers when they match the alias map and as immediates (decimal
// or 0x-prefixed hex) otherwise.
func liftLine(arch, line string) ([]ir.Instruction, error) {
	if arch != "x86" {
		return nil, fmt.Errorf("lift: unsupported architecture %q (only x86 is wired into barfctl)", arch)
	}
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	mnemonic := fields[0]
	var operands []x86.Operand
	if len(fields) == 2 {
		for _, tok := range strings.Split(fields[1], ",") {
			op, err := parseX86Operand(strings.TrimSpace(tok))
			if err != nil {
				return nil, err
			}
			operands = append(operands, op)
		}
	}

	instr := x86.Instruction{Mnemonic: mnemonic, Operands: operands, Address: 0, Size: 1}
	tr := x86.NewTranslator()
	return tr.Translate(instr)
}

func parseX86Operand(tok string) (x86.Operand, error) {
	if tok == "" {
		return nil, fmt.Errorf("lift: empty operand")
	}
	if _, ok := x86.Aliases.Resolve(strings.ToUpper(tok)); ok {
		return x86.Register{Name: strings.ToUpper(tok)}, nil
	}
	lower := strings.ToLower(tok)
	if strings.HasPrefix(lower, "0x") {
		v, err := strconv.ParseUint(lower[2:], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("lift: unrecognized operand %q: %w", tok, err)
		}
		return x86.Immediate{Value: v, Bits: 32}, nil
	}
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("lift: unrecognized operand %q: %w", tok, err)
	}
	return x86.Immediate{Value: v, Bits: 32}, nil
}

func readIRProgram(path string) ([]ir.Instruction, error) {
	var r *bufio.Scanner
	if path == "" {
		r = bufio.NewScanner(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = bufio.NewScanner(f)
	}

	var seq []ir.Instruction
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		instr, err := ir.ParseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", line, err)
		}
		seq = append(seq, instr)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return seq, nil
}

func printResult(res *emu.Result) {
	fmt.Println("registers:")
	for name, v := range res.Registers {
		fmt.Printf("  %s = %#x\n", name, v)
	}
	if len(res.Memory) > 0 {
		fmt.Println("memory:")
		for addr, b := range res.Memory {
			fmt.Printf("  [%#x] = %#02x\n", addr, b)
		}
	}
}
