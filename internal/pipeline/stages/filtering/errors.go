package filtering

import "fmt"

func errInvalidRange(field, reason string) error {
	return fmt.Errorf("filtering: invalid %s configuration: %s", field, reason)
}
