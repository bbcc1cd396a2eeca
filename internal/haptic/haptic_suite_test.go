package haptic_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHaptic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Haptic Suite")
}
