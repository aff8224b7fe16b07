package expense

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		store       *Store
		archive     *mockArchive
		images      *mockImageStore
		extractor   *mockExtractor
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		store = NewStore(filepath.Join(GinkgoT().TempDir(), "expenses.csv"), CSVCodec{})
		archive = newMockArchive()
		images = newMockImageStore()
		extractor = newMockExtractor()
		service = NewService(store, archive, images, extractor)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleCategories", func() {
		It("should return the full category vocabulary", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/categories")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var categories []string
			Expect(json.NewDecoder(resp.Body).Decode(&categories)).To(Succeed())
			Expect(categories).To(HaveLen(13))
			Expect(categories[0]).To(Equal("Food & Dining"))
			Expect(categories[len(categories)-1]).To(Equal("Other"))
		})
	})

	Describe("handleListExpenses", func() {
		When("expenses exist", func() {
			BeforeEach(func() {
				_, err := service.Add(10.00, "Groceries", "Walmart", "", "2024-01-10")
				Expect(err).NotTo(HaveOccurred())
				_, err = service.Add(20.00, "Gas", "Shell", "", "2024-01-20")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all expenses", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var records []Record
				Expect(json.NewDecoder(resp.Body).Decode(&records)).To(Succeed())
				Expect(records).To(HaveLen(2))
			})

			It("should apply query filters", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses?category=Gas")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				var records []Record
				Expect(json.NewDecoder(resp.Body).Decode(&records)).To(Succeed())
				Expect(records).To(HaveLen(1))
				Expect(records[0].Vendor).To(Equal("Shell"))
			})

			It("should reject an invalid category filter", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses?category=Bogus")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("no expenses exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
			})
		})
	})

	Describe("handleAddExpense", func() {
		post := func(body string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/expenses", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		When("the expense is valid", func() {
			It("should create the expense", func() {
				resp := post(`{"amount": 25.99, "category": "Groceries", "vendor": "Walmart", "date": "2024-01-15"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.Amount).To(Equal(25.99))
				Expect(store.Len()).To(Equal(1))
			})
		})

		When("the category is invalid", func() {
			It("should return a JSON error with status 400", func() {
				resp := post(`{"amount": 10, "category": "Bogus", "vendor": "X"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var errBody map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&errBody)).To(Succeed())
				Expect(errBody["error"]).To(ContainSubstring("invalid category"))
			})
		})

		When("the amount is negative", func() {
			It("should return status 400", func() {
				resp := post(`{"amount": -5, "category": "Other", "vendor": "X"}`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the body is not JSON", func() {
			It("should return status 400", func() {
				resp := post(`not json`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleSummary", func() {
		BeforeEach(func() {
			_, err := service.Add(10.00, "Groceries", "Walmart", "", "2024-01-10")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the aggregate view", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/expenses/summary")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var sum Summary
			Expect(json.NewDecoder(resp.Body).Decode(&sum)).To(Succeed())
			Expect(sum.ExpenseCount).To(Equal(1))
			Expect(sum.TotalAmount).To(Equal(10.00))
		})
	})

	Describe("handleByCategory", func() {
		BeforeEach(func() {
			_, err := service.Add(10.00, "Groceries", "Walmart", "", "2024-01-10")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return per-category totals", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/expenses/by-category")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var totals []CategoryTotal
			Expect(json.NewDecoder(resp.Body).Decode(&totals)).To(Succeed())
			Expect(totals).To(HaveLen(1))
			Expect(totals[0].Category).To(Equal("Groceries"))
		})
	})

	Describe("handleUploadScan", func() {
		upload := func(fieldname, filename string, data []byte) *http.Response {
			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile(fieldname, filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).To(Succeed())

			resp, err := http.Post(ghttpServer.URL()+"/api/scans", writer.FormDataContentType(), &buf)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		When("the upload succeeds", func() {
			It("should return the archived scan", func() {
				resp := upload("file", "receipt.jpg", []byte("fake image"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var scan ScanRecord
				Expect(json.NewDecoder(resp.Body).Decode(&scan)).To(Succeed())
				Expect(scan.Vendor).To(Equal("Starbucks"))
				Expect(scan.Amount).To(HaveValue(Equal(8.37)))
				Expect(archive.scans).To(HaveKey(scan.ID))
			})
		})

		When("no file field is present", func() {
			It("should return status 400", func() {
				resp := upload("wrong-field", "receipt.jpg", []byte("fake image"))
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleGetScan", func() {
		BeforeEach(func() {
			archive.scans["scan-1"] = &ScanRecord{ID: "scan-1", Vendor: "Starbucks"}
		})

		When("the scan exists", func() {
			It("should return it", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans/scan-1")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var scan ScanRecord
				Expect(json.NewDecoder(resp.Body).Decode(&scan)).To(Succeed())
				Expect(scan.Vendor).To(Equal("Starbucks"))
			})
		})

		When("the scan does not exist", func() {
			It("should return status 404", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans/nonexistent")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleGetScanImage", func() {
		BeforeEach(func() {
			archive.scans["scan-1"] = &ScanRecord{
				ID:          "scan-1",
				Filename:    "scan-1_receipt.jpg",
				ContentType: "image/jpeg",
			}
			images.files["scan-1_receipt.jpg"] = []byte("image bytes")
		})

		It("should return the image with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/scans/scan-1/image")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("image bytes"))
		})
	})

	Describe("handleConfirmScan", func() {
		confirm := func(id, body string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/scans/"+id+"/confirm", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		BeforeEach(func() {
			amount := 8.37
			archive.scans["scan-1"] = &ScanRecord{
				ID:                "scan-1",
				Vendor:            "Starbucks",
				Amount:            &amount,
				Date:              "2024-01-15",
				SuggestedCategory: "Food & Dining",
				Filename:          "scan-1_receipt.jpg",
			}
		})

		When("the scan has an amount", func() {
			It("should create the expense", func() {
				resp := confirm("scan-1", `{}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.Category).To(Equal("Food & Dining"))
				Expect(store.Len()).To(Equal(1))
			})
		})

		When("a category override is given", func() {
			It("should use the override", func() {
				resp := confirm("scan-1", `{"category": "Business"}`)
				defer resp.Body.Close()

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.Category).To(Equal("Business"))
			})
		})

		When("the scan has no amount", func() {
			BeforeEach(func() {
				archive.scans["scan-1"].Amount = nil
			})

			It("should return status 400", func() {
				resp := confirm("scan-1", `{}`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the scan does not exist", func() {
			It("should return status 404", func() {
				resp := confirm("nonexistent", `{}`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleDeleteScan", func() {
		BeforeEach(func() {
			archive.scans["scan-1"] = &ScanRecord{ID: "scan-1", Filename: "scan-1_receipt.jpg"}
			images.files["scan-1_receipt.jpg"] = []byte("data")
		})

		It("should delete the scan and its image", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/scans/scan-1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(archive.scans).NotTo(HaveKey("scan-1"))
			Expect(images.files).NotTo(HaveKey("scan-1_receipt.jpg"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer()
		})

		When("no credentials are sent", func() {
			It("should return status 401 with a challenge", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
			})
		})

		When("wrong credentials are sent", func() {
			It("should return status 401", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/expenses", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:wrong")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("correct credentials are sent", func() {
			It("should return status 200", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/expenses", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("admin", "secret")
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})
})
