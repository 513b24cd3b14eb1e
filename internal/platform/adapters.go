package platform

// The adapters below are thin handles. Catalog data is served from the cached
// snapshot tables; live endpoints are owned by the crawler/sync process.

type samsClubAdapter struct{}

func newSamsClubAdapter() *samsClubAdapter { return &samsClubAdapter{} }

func (a *samsClubAdapter) Slug() ID     { return SamsClub }
func (a *samsClubAdapter) Name() string { return "山姆会员商店" }

type jdDaojiaAdapter struct{}

func newJDDaojiaAdapter() *jdDaojiaAdapter { return &jdDaojiaAdapter{} }

func (a *jdDaojiaAdapter) Slug() ID     { return JDDaojia }
func (a *jdDaojiaAdapter) Name() string { return "京东到家" }

type freshippoAdapter struct{}

func newFreshippoAdapter() *freshippoAdapter { return &freshippoAdapter{} }

func (a *freshippoAdapter) Slug() ID     { return Freshippo }
func (a *freshippoAdapter) Name() string { return "盒马鲜生" }

type meituanAdapter struct{}

func newMeituanAdapter() *meituanAdapter { return &meituanAdapter{} }

func (a *meituanAdapter) Slug() ID     { return Meituan }
func (a *meituanAdapter) Name() string { return "美团买菜" }
