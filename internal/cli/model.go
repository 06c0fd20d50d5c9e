package cli

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/jaeger/internal/backend/cpu"
	"github.com/born-ml/jaeger/internal/models"
	"github.com/born-ml/jaeger/internal/serialization"
	"github.com/born-ml/jaeger/internal/tensor"
	"github.com/born-ml/jaeger/internal/tokenizer"
)

// defaultLength is used by forward when neither the model nor --length fix
// the input length.
const defaultLength = 128

func summaryCmd() *cobra.Command {
	var flags modelFlags
	cmd := &cobra.Command{
		Use:   "summary MODEL",
		Short: "Print the layers, output shapes and parameter counts of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.build(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model: %s\n", m.Name())
			for _, in := range m.Inputs() {
				fmt.Fprintf(out, "  input %s %s %s\n", in.Name, in.DType, formatShape(in.Shape))
			}
			fmt.Fprintln(out)

			table := newTable(out, "LAYER", "TYPE", "OUTPUT SHAPE", "PARAMS")
			for _, row := range m.Summary() {
				table.Append([]string{row.Name, row.Kind, formatShape(row.OutputShape), strconv.Itoa(row.Params)})
			}
			table.Render()
			fmt.Fprintf(out, "\nTotal params: %d\n", m.NumParameters())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func forwardCmd() *cobra.Command {
	var (
		flags  modelFlags
		batch  int
		frames []string
	)
	cmd := &cobra.Command{
		Use:   "forward MODEL",
		Short: "Run token inputs through a freshly initialized model",
		Long: `Run token inputs through a freshly initialized model.

Without --frame the model sees --batch random sequences. With six --frame
flags it sees one sequence given as amino-acid frames, in input order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch <= 0 {
				return fmt.Errorf("--batch must be positive, got %d", batch)
			}
			m, err := flags.build(args[0])
			if err != nil {
				return err
			}
			m.SetTraining(false)

			var inputs map[string]*tensor.Tensor[int32, *cpu.CPUBackend]
			if len(frames) > 0 {
				inputs, err = frameInputs(m, frames)
				batch = 1
			} else {
				inputs = randomInputs(m, batch, flags.seed+1)
			}
			if err != nil {
				return err
			}

			slog.Debug("running forward pass", "model", m.Name(), "batch", batch)
			logits, err := m.Forward(inputs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logits %s\n", formatShape(logits.Shape()))
			classes := logits.Shape()[1]
			data := logits.Data()
			for i := 0; i < batch; i++ {
				row := make([]string, classes)
				for j, v := range data[i*classes : (i+1)*classes] {
					row[j] = strconv.FormatFloat(float64(v), 'f', 6, 32)
				}
				fmt.Fprintf(out, "[%s]\n", strings.Join(row, " "))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&batch, "batch", 2, "number of random sequences")
	cmd.Flags().StringArrayVar(&frames, "frame", nil, "amino-acid frame, repeated once per model input")
	return cmd
}

func randomInputs(m *models.Model[*cpu.CPUBackend], batch int, seed int64) map[string]*tensor.Tensor[int32, *cpu.CPUBackend] {
	length := m.Inputs()[0].Shape[1]
	if length < 0 {
		length = defaultLength
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic inputs
	inputs := make(map[string]*tensor.Tensor[int32, *cpu.CPUBackend])
	for _, in := range m.Inputs() {
		inputs[in.Name] = tensor.RandInt(tensor.Shape{batch, length}, 0,
			int32(m.Config().VocabSize), rng, cpu.New())
	}
	return inputs
}

// frameInputs encodes one sequence per model input. Frames are padded to
// the model's fixed length, or to the longest frame when it has none.
func frameInputs(m *models.Model[*cpu.CPUBackend], frames []string) (map[string]*tensor.Tensor[int32, *cpu.CPUBackend], error) {
	specs := m.Inputs()
	if len(frames) != len(specs) {
		return nil, fmt.Errorf("--frame given %d times, %s expects %d frames", len(frames), m.Name(), len(specs))
	}
	length := max(specs[0].Shape[1], 0)
	ids, err := tokenizer.EncodeFrames(tokenizer.NewAminoAcid(), frames, length)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string]*tensor.Tensor[int32, *cpu.CPUBackend], len(specs))
	for i, in := range specs {
		t, err := tensor.FromSlice(ids[i], tensor.Shape{1, len(ids[i])}, cpu.New())
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in.Name, err)
		}
		inputs[in.Name] = t
	}
	return inputs, nil
}

func exportCmd() *cobra.Command {
	var (
		flags  modelFlags
		output string
		half   bool
	)
	cmd := &cobra.Command{
		Use:   "export MODEL",
		Short: "Write the freshly initialized weights of a model as SafeTensors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.build(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = m.Name() + ".safetensors"
			}
			state := serialization.StateTensors(m.StateDict())
			if err := serialization.WriteFile(output, state, serialization.WriteOptions{
				Float16:  half,
				Metadata: serialization.NewMetadata(m.Name()),
			}); err != nil {
				return err
			}
			digest, err := serialization.FileDigest(output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d tensors to %s\n%s\n", state.Len(), output, digest)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default MODEL.safetensors)")
	cmd.Flags().BoolVar(&half, "f16", false, "store float tensors in half precision")
	return cmd
}
