//go:build !windows

package window

func activate(title string) (bool, error) {
	return false, nil
}
