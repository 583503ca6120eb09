// Package harness adapts conventional unit-test style suites to a dynamic
// component runtime where the components under test register and deregister
// asynchronously and may still be starting when a test begins.
//
// It provides two core mechanisms:
//
//   - A suite lifecycle tracker that collapses "once per whole suite"
//     setup/teardown semantics onto an engine that only offers per-test
//     hooks, by counting the distinct qualifying tests across a suite
//     definition chain and tracking how many have completed.
//
//   - A bounded component locator that blocks the calling test until a
//     component matching a capability query appears in the registry, or a
//     timeout elapses, and then either returns the component or fails the
//     test. The wait is notification driven, never polled, and the registry
//     subscription backing it is released on every exit path.
//
// Suites are declared statically rather than discovered by reflection:
//
//	var base = &harness.SuiteDefinition{
//		Name: "storage-base",
//		Tests: []harness.TestDescriptor{
//			{Name: "testPing", Run: pingTest},
//		},
//	}
//
//	var suite = &harness.SuiteDefinition{
//		Name: "postgres",
//		Base: base,
//		BeforeSuite: startFixtures,
//		AfterSuite:  stopFixtures,
//		Tests: []harness.TestDescriptor{
//			{Name: "testQuery", Run: queryTest},
//		},
//	}
//
//	func TestPostgres(t *testing.T) {
//		h := harness.New(registry.New(), configstore.New())
//		h.RunSuite(t, suite)
//	}
//
// A test qualifies when its name starts with "test", declares no
// parameters and returns nothing. Names are de-duplicated across the Base
// chain, so an overriding test counts once, matching single dispatch in
// class-based test frameworks.
package harness
