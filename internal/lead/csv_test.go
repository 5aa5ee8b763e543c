package lead_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/lead"
)

var _ = Describe("CSV import and export", func() {
	var (
		ctx   context.Context
		pub   *recordingPublisher
		svc   *lead.Service
		scope internal.Scope
	)

	BeforeEach(func() {
		ctx = context.Background()
		pub = &recordingPublisher{}
		svc = newService(pub)
		scope = internal.Scope{CompanyID: 1, UserID: "manager-1", Role: "manager"}
	})

	It("imports valid rows and reports the rest", func() {
		_, err := svc.Create(ctx, scope, validDTO("Existing", "existing@example.com"))
		Expect(err).NotTo(HaveOccurred())

		input := strings.Join([]string{
			"name,email,phone,company,source,interests,notes",
			"Ada,ada@example.com,+44 20 1234,Analytical,event,engines;math,first",
			"Ada Dup,ADA@example.com,,,,,",
			"Nameless,,,,,,",
			"Old,existing@example.com,,,,,",
			"Alan,alan@example.com,0123456,,,,",
			"Bad Phone,bad@example.com,phone?,,,,",
		}, "\n")

		result, err := svc.ImportCSV(ctx, scope, strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(Equal(2))

		Expect(result.Skipped).To(HaveLen(2))
		Expect(result.Skipped[0].Row).To(Equal(3))
		Expect(result.Skipped[0].Reason).To(ContainSubstring("2 times"))
		Expect(result.Skipped[1].Email).To(Equal("existing@example.com"))

		Expect(result.Invalid).To(HaveLen(2))
		Expect(result.Invalid[0].Row).To(Equal(4))
		Expect(result.Invalid[1].Email).To(Equal("bad@example.com"))

		ada, err := svc.List(ctx, scope, lead.ListFilter{Search: "ada@"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ada.Leads).To(HaveLen(1))
		Expect(ada.Leads[0].Source).To(Equal(lead.SourceEvent))
		Expect(ada.Leads[0].Interests).To(Equal([]string{"engines", "math"}))

		alan, err := svc.List(ctx, scope, lead.ListFilter{Search: "alan@"})
		Expect(err).NotTo(HaveOccurred())
		Expect(alan.Leads[0].Source).To(Equal(lead.SourceImport))
		Expect(alan.Leads[0].Phone).To(Equal("0123456"))

		// one event for the manual create plus one per imported row
		Expect(pub.types()).To(HaveLen(3))
	})

	It("keeps cells that look like missing values as text", func() {
		input := "name,email,company,notes\nNaN,nan@example.com,NA,NaN\n"

		result, err := svc.ImportCSV(ctx, scope, strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(Equal(1))

		list, err := svc.List(ctx, scope, lead.ListFilter{Search: "nan@"})
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Leads).To(HaveLen(1))
		Expect(list.Leads[0].Name).To(Equal("NaN"))
		Expect(list.Leads[0].Company).To(Equal("NA"))
		Expect(list.Leads[0].Notes).To(Equal("NaN"))
	})

	It("rejects files without an email column", func() {
		_, err := svc.ImportCSV(ctx, scope, strings.NewReader("name,phone\nAda,123456\n"))
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidCSV))
	})

	It("exports every lead of the company with a header", func() {
		_, err := svc.Create(ctx, scope, lead.CreateLeadDTO{Name: "Ada, Countess", Email: "ada@example.com", Interests: []string{"a", "b"}})
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Create(ctx, scope, validDTO("Alan", "alan@example.com"))
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Create(ctx, internal.Scope{CompanyID: 2, UserID: "x"}, validDTO("Other", "other@example.com"))
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		n, err := svc.ExportCSV(ctx, scope, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		records, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(Equal(lead.CSVColumns))
		Expect(records[1][1]).To(Equal("Ada, Countess"))
		Expect(records[1][7]).To(Equal("a;b"))
	})

	It("exports just the header for an empty company", func() {
		var buf bytes.Buffer
		n, err := svc.ExportCSV(ctx, scope, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
		Expect(strings.TrimSpace(buf.String())).To(Equal(strings.Join(lead.CSVColumns, ",")))
	})

	It("round-trips an export through import into another company", func() {
		_, err := svc.Create(ctx, scope, validDTO("Ada", "ada@example.com"))
		Expect(err).NotTo(HaveOccurred())
		var buf bytes.Buffer
		_, err = svc.ExportCSV(ctx, scope, &buf)
		Expect(err).NotTo(HaveOccurred())

		result, err := svc.ImportCSV(ctx, internal.Scope{CompanyID: 2, UserID: "m"}, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Created).To(Equal(1))
	})
})
