package expense

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalImageStore", func() {
	var (
		tmpDir string
		images ImageStore
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		images, err = NewLocalImageStore(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("should write the file and return its name", func() {
			path, err := images.Save("receipt.jpg", []byte("image data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("receipt.jpg"))
			Expect(filepath.Join(tmpDir, "receipt.jpg")).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		When("the image exists", func() {
			BeforeEach(func() {
				_, err := images.Save("receipt.jpg", []byte("image data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the data", func() {
				data, err := images.Get("receipt.jpg")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("image data"))
			})
		})

		When("the image does not exist", func() {
			It("returns the error", func() {
				_, err := images.Get("nonexistent.jpg")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		When("the image exists", func() {
			BeforeEach(func() {
				_, err := images.Save("receipt.jpg", []byte("image data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the file", func() {
				Expect(images.Delete("receipt.jpg")).To(Succeed())
				Expect(filepath.Join(tmpDir, "receipt.jpg")).NotTo(BeAnExistingFile())
			})
		})

		When("the image does not exist", func() {
			It("returns the error", func() {
				Expect(images.Delete("nonexistent.jpg")).To(HaveOccurred())
			})
		})
	})

	Describe("NewLocalImageStore", func() {
		It("should create a missing directory", func() {
			nested := filepath.Join(GinkgoT().TempDir(), "receipts")
			_, err := NewLocalImageStore(nested)
			Expect(err).NotTo(HaveOccurred())
			Expect(nested).To(BeADirectory())
		})
	})
})

var _ = Describe("sanitizeFilename", func() {
	It("should strip special characters", func() {
		Expect(sanitizeFilename("re#ce!ipt*.jpg")).To(Equal("receipt.jpg"))
	})

	It("should collapse repeated whitespace", func() {
		Expect(sanitizeFilename("my    receipt.jpg")).To(Equal("my receipt.jpg"))
	})

	It("should truncate very long base names", func() {
		long := ""
		for i := 0; i < 10; i++ {
			long += "abcdefghij"
		}
		Expect(sanitizeFilename(long + ".jpg")).To(HaveLen(50 + len(".jpg")))
	})

	It("should fall back when nothing survives", func() {
		Expect(sanitizeFilename("###.jpg")).To(Equal("receipt.jpg"))
	})
})
