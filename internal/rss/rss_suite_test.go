package rss_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRSSSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "rss property suite")
}
