package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorDim    = "\x1b[38;5;245m"
	colorName   = "\x1b[38;5;108m"
	colorNumber = "\x1b[38;5;175m"
	colorWarn   = "\x1b[38;5;214m"
	colorError  = "\x1b[38;5;167m"
)

var bufferPool = buffer.NewPool()

// compactEncoder renders one line per entry:
// "13:04:35  n.relations  resolved batch  run=4f1c nodes=500"
type compactEncoder struct {
	zapcore.Encoder
	context []zapcore.Field
}

func newCompactEncoder() *compactEncoder {
	return &compactEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *compactEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(enc.context))
	copy(ctx, enc.context)
	return &compactEncoder{
		Encoder: enc.Encoder.Clone(),
		context: ctx,
	}
}

// AddString and friends are routed through the embedded encoder; With()
// fields arrive via the core's Clone+AddTo path, so collect them here.
func (enc *compactEncoder) AddString(key, val string) {
	enc.context = append(enc.context, zap.String(key, val))
}

func (enc *compactEncoder) AddInt64(key string, val int64) {
	enc.context = append(enc.context, zap.Int64(key, val))
}

func (enc *compactEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(colorDim)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	if lvl := levelString(ent.Level); lvl != "" {
		final.AppendString("  ")
		final.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorName)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	all := make([]zapcore.Field, 0, len(enc.context)+len(fields))
	all = append(all, enc.context...)
	all = append(all, fields...)
	if kv := formatFields(all); kv != "" {
		final.AppendString("  ")
		final.AppendString(kv)
	}

	final.AppendString("\n")
	return final, nil
}

func levelString(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorDim + "DEBUG" + colorReset
	case zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBold + colorWarn + "WARN" + colorReset
	default:
		return colorBold + colorError + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: normalize.relations -> n.relations
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// formatFields renders key=value pairs; run_id first, the rest sorted.
func formatFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	sorted := make([]zapcore.Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key == FieldRunID {
			return sorted[j].Key != FieldRunID
		}
		if sorted[j].Key == FieldRunID {
			return false
		}
		return sorted[i].Key < sorted[j].Key
	})

	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		val := fieldValue(f)
		if val == "" {
			continue
		}
		if f.Key == FieldDurationMS || f.Key == FieldCount || f.Key == FieldNodes || f.Key == FieldLinks {
			val = colorNumber + val + colorReset
		}
		parts = append(parts, f.Key+"="+val)
	}
	return strings.Join(parts, " ")
}
