// Package renderer turns validated device secrets into the firmware's secrets.h header.
//
// Templates live as embedded `.tmpl` files under templates/ and are rendered with
// text/template plus the sprig function map and a `cstring` helper that emits a
// quoted, escaped C string literal. Callers never hand a raw record to a template:
// secrets.Parse validates it into secrets.Values first, and HeaderData maps each
// value to exactly one #define slot.
//
// Example:
//
//	values, err := secrets.Parse(record, secrets.BuildContext{ModelName: "ESP32-Sensor"})
//	if err != nil { return err }
//	header, err := renderer.RenderHeader(values)
//	if err != nil { return err }
//	fmt.Print(header)
package renderer
