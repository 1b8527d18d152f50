package wire

import "fmt"

// NotUsed marks partition-by and order-by ordinals of a column not taking part in windowing
const NotUsed = -1

// Column describes a single column declared by the host for input, or reported back for output.
type Column struct {
	Index       int      // 0-based position in the schema
	Name        string   // column name, required
	Type        DataType // data type tag
	Size        int      // declared byte width, for char types the max length of a value
	Decimals    int      // decimal digits (scale)
	Nullable    bool     // column may carry null values
	PartitionBy int      // partition-by ordinal, NotUsed (-1) if not used
	OrderBy     int      // order-by ordinal, NotUsed (-1) if not used
}

// Validate checks the column against the declared number of columns in the schema
func (c Column) Validate(columns int) error {
	if c.Index < 0 || c.Index >= columns {
		return fmt.Errorf("column index %d out of range, schema has %d columns", c.Index, columns)
	}
	if c.Name == "" {
		return fmt.Errorf("column %d has no name", c.Index)
	}
	if !c.Type.Supported() {
		return fmt.Errorf("column %q has unsupported data type %s", c.Name, c.Type)
	}
	if c.Size < 0 || c.Decimals < 0 {
		return fmt.Errorf("column %q has negative size or decimal digits", c.Name)
	}
	if c.PartitionBy < NotUsed || c.OrderBy < NotUsed {
		return fmt.Errorf("column %q has invalid partition-by/order-by ordinal", c.Name)
	}
	return nil
}
