package permission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/datascope/internal"
	permissionDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/permission"
	"github.com/frahmantamala/datascope/internal/permission"
	applog "github.com/frahmantamala/datascope/pkg/logger"
)

type fakeRepo struct {
	mu    sync.Mutex
	rows  []*permissionDatamodel.RolePermission
	calls int32
	gate  chan struct{}
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{}
}

func (f *fakeRepo) ListByRole(_ context.Context, companyID int64, role string) ([]*permissionDatamodel.RolePermission, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*permissionDatamodel.RolePermission
	for _, row := range f.rows {
		if row.Role == role && row.CompanyID == permission.DefaultsCompanyID {
			out = append(out, row)
		}
	}
	for _, row := range f.rows {
		if row.Role == role && companyID != permission.DefaultsCompanyID && row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepo) Upsert(_ context.Context, rp *permissionDatamodel.RolePermission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.CompanyID == rp.CompanyID && existing.Role == rp.Role &&
			existing.Module == rp.Module && existing.Permission == rp.Permission {
			existing.Allowed = rp.Allowed
			return nil
		}
	}
	f.rows = append(f.rows, rp)
	return nil
}

var _ = Describe("Permission Service", func() {
	var (
		ctx   context.Context
		repo  *fakeRepo
		svc   *permission.Service
		scope internal.Scope
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeRepo()
		scope = internal.Scope{CompanyID: 7, UserID: "user-1", Role: "agent", SessionID: "sess-1"}
		svc = permission.NewService(repo, permission.NewMemoryCache(), permission.Options{
			TTL:         time.Minute,
			LoadTimeout: 200 * time.Millisecond,
		}, applog.Discard())
		Expect(svc.SetRolePermission(ctx, permission.DefaultsCompanyID, "agent", permission.RoleGrant{Module: "leads", Permission: "view", Allowed: true})).To(Succeed())
	})

	It("grants what the role table allows", func() {
		d, err := svc.Check(ctx, scope, "leads", "view")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeTrue())
	})

	It("denies what the role table does not mention", func() {
		d, err := svc.Check(ctx, scope, "leads", "delete")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeFalse())
		Expect(d.State).To(Equal(permission.StateDenied))
	})

	It("serves repeat checks from the cache", func() {
		for i := 0; i < 5; i++ {
			_, err := svc.Check(ctx, scope, "leads", "view")
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(atomic.LoadInt32(&repo.calls)).To(Equal(int32(1)))
	})

	It("collapses concurrent loads into one query", func() {
		repo.gate = make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, _ = svc.Snapshot(ctx, scope)
			}()
		}
		Eventually(func() int32 { return atomic.LoadInt32(&repo.calls) }).Should(Equal(int32(1)))
		close(repo.gate)
		wg.Wait()
		Expect(atomic.LoadInt32(&repo.calls)).To(Equal(int32(1)))
	})

	It("reports loading while the snapshot load is slow, then grants once it lands", func() {
		repo.gate = make(chan struct{})

		d, err := svc.Check(ctx, scope, "leads", "view")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeFalse())
		Expect(d.State).To(Equal(permission.StateLoading))

		close(repo.gate)
		Eventually(func() permission.State {
			d, _ := svc.Check(ctx, scope, "leads", "view")
			return d.State
		}).Should(Equal(permission.StateGranted))
	})

	It("surfaces repository failures as an error state", func() {
		repo.err = errors.New("connection refused")
		d, err := svc.Check(ctx, scope, "leads", "view")
		Expect(err).To(HaveOccurred())
		Expect(d.Allowed).To(BeFalse())
		Expect(d.State).To(Equal(permission.StateError))
	})

	It("keeps snapshots separate per company", func() {
		_, err := svc.Snapshot(ctx, scope)
		Expect(err).NotTo(HaveOccurred())
		other := scope
		other.CompanyID = 8
		other.Role = "viewer"
		d, err := svc.Check(ctx, other, "leads", "view")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeFalse())
	})

	It("reloads after Forget", func() {
		_, err := svc.Snapshot(ctx, scope)
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.SetRolePermission(ctx, permission.DefaultsCompanyID, "agent", permission.RoleGrant{Module: "leads", Permission: "view", Allowed: false})).To(Succeed())

		d, _ := svc.Check(ctx, scope, "leads", "view")
		Expect(d.Allowed).To(BeTrue(), "stale snapshot until forgotten")

		Expect(svc.Forget(ctx, scope)).To(Succeed())
		d, _ = svc.Check(ctx, scope, "leads", "view")
		Expect(d.Allowed).To(BeFalse())
	})

	It("rejects permissions outside the catalog", func() {
		err := svc.SetRolePermission(ctx, permission.DefaultsCompanyID, "agent", permission.RoleGrant{Module: "leads", Permission: "draw", Allowed: true})
		Expect(err).To(HaveOccurred())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(400))
	})

	It("seeds the default role table", func() {
		Expect(svc.SeedDefaults(ctx)).To(Succeed())
		grants, err := svc.ListRolePermissions(ctx, 7, "admin")
		Expect(err).NotTo(HaveOccurred())
		Expect(grants).To(HaveLen(len(permission.DefaultGrants()["admin"])))
	})

	It("keeps a company's grant edits inside that company", func() {
		Expect(svc.SeedDefaults(ctx)).To(Succeed())
		other := internal.Scope{CompanyID: 8, UserID: "user-2", Role: "agent", SessionID: "sess-2"}

		d, err := svc.Check(ctx, other, "leads", "delete")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeFalse())

		Expect(svc.SetRolePermission(ctx, scope.CompanyID, "agent", permission.RoleGrant{Module: "leads", Permission: "delete", Allowed: true})).To(Succeed())
		Expect(svc.Forget(ctx, scope)).To(Succeed())
		Expect(svc.Forget(ctx, other)).To(Succeed())

		d, err = svc.Check(ctx, scope, "leads", "delete")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeTrue())

		d, err = svc.Check(ctx, other, "leads", "delete")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeFalse())
	})

	It("lets a company override a default in either direction", func() {
		Expect(svc.SetRolePermission(ctx, scope.CompanyID, "agent", permission.RoleGrant{Module: "leads", Permission: "view", Allowed: false})).To(Succeed())

		grants, err := svc.ListRolePermissions(ctx, scope.CompanyID, "agent")
		Expect(err).NotTo(HaveOccurred())
		Expect(grants).To(ConsistOf(permission.RoleGrant{Module: "leads", Permission: "view", Allowed: false}))

		grants, err = svc.ListRolePermissions(ctx, 8, "agent")
		Expect(err).NotTo(HaveOccurred())
		Expect(grants).To(ConsistOf(permission.RoleGrant{Module: "leads", Permission: "view", Allowed: true}))
	})
})

var _ = Describe("RedisCache", func() {
	var (
		mr    *miniredis.Miniredis
		cache *permission.RedisCache
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)
		cache = permission.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		ctx = context.Background()
	})

	It("round-trips a snapshot", func() {
		set := permission.NewSet(3, "u", "manager", []permission.RoleGrant{{Module: "leads", Permission: "export", Allowed: true}})
		Expect(cache.Put(ctx, "s:3", set, time.Minute)).To(Succeed())

		got, ok, err := cache.Get(ctx, "s:3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(permission.Evaluate(got, "leads", "export").Allowed).To(BeTrue())
	})

	It("misses after the ttl", func() {
		set := permission.NewSet(3, "u", "manager", nil)
		Expect(cache.Put(ctx, "s:3", set, time.Minute)).To(Succeed())
		mr.FastForward(2 * time.Minute)

		_, ok, err := cache.Get(ctx, "s:3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("treats a corrupt entry as a miss", func() {
		Expect(mr.Set("datascope:perm:bad", "{not json")).To(Succeed())
		_, ok, err := cache.Get(ctx, "bad")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("backs the service", func() {
		repo := newFakeRepo()
		svc := permission.NewService(repo, cache, permission.Options{TTL: time.Minute}, applog.Discard())
		Expect(svc.SetRolePermission(ctx, permission.DefaultsCompanyID, "viewer", permission.RoleGrant{Module: "dashboard", Permission: "view", Allowed: true})).To(Succeed())
		scope := internal.Scope{CompanyID: 1, UserID: "u", Role: "viewer"}

		d, err := svc.Check(ctx, scope, "dashboard", "view")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Allowed).To(BeTrue())
		Expect(mr.Exists("datascope:perm:" + scope.SessionKey())).To(BeTrue())
	})
})
