package changelog

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

// releaseNotesTemplate is the skeleton for a release's curated notes file.
// The grouped enhancement/bug anchors are spliced in by ReleaseNotes.
const releaseNotesTemplate = `
.. to_doc

{{.Release}}
===============================

.. announce_start

Enhancements
-------------------------------

.. major_feature


.. feature

.. enhancement

.. small_enhancement



Fixes
-------------------------------

.. major_bug


.. bug


.. include:: {{.Release}}_prs.rst

`

const announceTemplate = `
===========================================================
{{.MonthName}} 20{{.Year}} Galaxy Release (v {{.Release}})
===========================================================

.. include:: _header.rst

Highlights
===========================================================

Feature1
--------

Feature description.

Feature2
--------

Feature description.

Feature3
--------

Feature description.

Also check out the ` + "`" + `{{.Release}} user release notes <{{.Release}}_announce_user.html>` + "`" + `__.
Are you an admin? Check out ` + "`" + `some admin relevant PRs <https://github.com/galaxyproject/galaxy/pulls?q=label%3Ahighlight%2Fadmin+milestone%3A{{.Release}}+is%3Aclosed+is%3Apr>` + "`" + `__.

Get Galaxy
===========================================================

The code lives at ` + "`" + `GitHub <https://github.com/galaxyproject/galaxy>` + "`" + `__ and you should have ` + "`" + `Git <https://git-scm.com/>` + "`" + `__ to obtain it.

To get a new Galaxy repository run:
  .. code-block:: shell

      $ git clone -b release_{{.Release}} https://github.com/galaxyproject/galaxy.git

To update an existing Galaxy repository run:
  .. code-block:: shell

      $ git fetch origin && git checkout release_{{.Release}} && git pull --ff-only origin release_{{.Release}}

See the ` + "`" + `community hub <https://galaxyproject.org/develop/source-code/>` + "`" + `__ for additional details on source code locations.


Administration Notes
===========================================================
Add content or drop section.

Configuration Changes
===========================================================
Add content or drop section.

Deprecation Notices
===========================================================
Add content or drop section.

Release Notes
===========================================================

.. include:: {{.Release}}.rst
   :start-after: announce_start

.. include:: _thanks.rst
`

const announceUserTemplate = `
===========================================================
{{.MonthName}} 20{{.Year}} Galaxy Release (v {{.Release}})
===========================================================

.. include:: _header.rst

Highlights
===========================================================

Feature1
--------

Feature description.

Feature2
--------

Feature description.

Feature3
--------

Feature description.


Visualizations
===========================================================

.. visualizations

Datatypes
===========================================================

.. datatypes

Builtin Tool Updates
===========================================================

.. tools

Release Testing Team
===========================================================

A special thanks to the release testing team for testing many of the new features and reporting many bugs:

<team members go here>

Release Notes
===========================================================

Please see the :doc:` + "`" + `full release notes <{{.Release}}_announce>` + "`" + ` for more details.

.. include:: {{.Release}}_prs.rst

.. include:: _thanks.rst
`

const nextAnnounceTemplate = `
:orphan:

===========================================================
{{.MonthName}} 20{{.Year}} Galaxy Release (v {{.Release}})
===========================================================


Schedule
===========================================================
 * Planned Freeze Date: {{.FreezeDate}}
 * Planned Release Date: {{.ReleaseDate}}
`

// PullRequestLinksTemplate seeds the per-release PR link registry file.
const PullRequestLinksTemplate = `
.. github_links
`

const releaseIssueTemplate = `

- [ ] **Prep**

    - [X] ~~Create this release issue ` + "``make release-issue``" + `.~~
    - [X] ~~Set freeze date ({{.FreezeDate}}).~~
    - [ ] Verify that your installed version of ` + "`galaxy-release-util`" + ` is up-to-date.

- [ ] **Branch Release (on or around {{.FreezeDate}})**

    - [ ] Ensure all [blocking milestone pull requests](https://github.com/galaxyproject/galaxy/pulls?q=is%3Aopen+is%3Apr+milestone%3A{{.Version}}) have been merged, delayed, or closed.

          make release-check-blocking-prs

    - [ ] Add latest database revision identifier (for ` + "``release_{{.Version}}``" + ` and ` + "``{{.Version}}``" + `) to ` + "``REVISION_TAGS``" + ` in ` + "``galaxy/model/migrations/dbscript.py``" + `.

    - [ ] Merge the latest release into dev and push upstream.

          make release-merge-stable-to-next RELEASE_PREVIOUS=release_{{.PreviousVersion}}
          make release-push-dev

    - [ ] Create and push release branch:

          make release-create-rc

    - [ ] Open pull requests from your fork of branch ` + "``version-{{.Version}}``" + ` to upstream ` + "``release_{{.Version}}``" + ` and of ` + "``version-{{.NextVersion}}.dev``" + ` to ` + "``dev``" + `.
    - [ ] Update ` + "``MILESTONE_NUMBER``" + ` in the [maintenance bot](https://github.com/galaxyproject/galaxy/blob/dev/.github/workflows/maintenance_bot.yaml) to ` + "`{{.NextVersion}}`" + ` so it properly tags new pull requests.

- [ ] **Issue Review Timeline Notes**

    - [ ] Ensure any security fixes will be ready prior to {{.FreezeDate}} + 1 week, to allow time for notification prior to release.
    - [ ] Ensure ownership of outstanding bugfixes and track progress during freeze.

- [ ] **Deploy and Test Release**

    - [ ] Update test.galaxyproject.org to ensure it is running the ` + "``release_{{.Version}}``" + ` branch.
    - [ ] Update testtoolshed.g2.bx.psu.edu to ensure it is running a dev at or past branch point ({{.FreezeDate}} + 1 day).
    - [ ] Conduct release testing on test.galaxyproject.org.
    - [ ] Deploy to usegalaxy.org ({{.FreezeDate}} + 1 week).
    - [ ] Deploy to toolshed.g2.bx.psu.edu ({{.FreezeDate}} + 1 week).
    - [ ] Conduct release testing on usegalaxy.org.
    - [ ] [Update BioBlend CI testing](https://github.com/galaxyproject/bioblend/blob/main/.github/workflows/test.yaml) to include a ` + "``release_{{.Version}}``" + ` target: add ` + "``- release_{{.Version}}``" + ` to the ` + "``galaxy_version``" + ` list in ` + "``.github/workflows/test.yaml``" + ` .
    - [ ] Update GALAXY_RELEASE in IUC and devteam github workflows
        - [ ] https://github.com/galaxyproject/tools-iuc/blob/master/.github/workflows/
        - [ ] https://github.com/galaxyproject/tools-devteam/blob/master/.github/workflows/

- [ ] **Create Release Notes**

    - [ ] Review merged pull requests and ensure they all have a milestone attached. [Link](https://github.com/galaxyproject/galaxy/pulls?utf8=%E2%9C%93&q=is%3Apr+is%3Amerged+no%3Amilestone+-label%3Amerge+)
    - [ ] Switch to release branch and create a new branch for release notes

          git checkout release_{{.Version}} -b {{.Version}}_release_notes
    - [ ] Bootstrap the release notes

          make release-bootstrap-history RELEASE_CURR={{.Version}}
    - [ ] Open newly created files and manually curate major topics and release notes.
    - [ ] Run ` + "``python scripts/release-diff.py release_{{.PreviousVersion}}``" + ` and add configuration changes to release notes.
    - [ ] Add new release to doc/source/releases/index.rst
    - [ ] Open a pull request for the release notes branch.
    - [ ] Merge release notes pull request.

- [ ] **Do Release**

    - [ ] Ensure all [blocking milestone issues](https://github.com/galaxyproject/galaxy/issues?q=is%3Aopen+is%3Aissue+milestone%3A{{.Version}}) have been resolved.

          make release-check-blocking-issues RELEASE_CURR={{.Version}}
    - [ ] Ensure all [blocking milestone pull requests](https://github.com/galaxyproject/galaxy/pulls?q=is%3Aopen+is%3Apr+milestone%3A{{.Version}}) have been merged or closed.

          make release-check-blocking-prs RELEASE_CURR={{.Version}}
    - [ ] Ensure all pull requests merged into the pre-release branch during the freeze have [milestones attached](https://github.com/galaxyproject/galaxy/pulls?q=is%3Apr+is%3Aclosed+base%3Arelease_{{.Version}}+is%3Amerged+no%3Amilestone) and that they are the not [{{.NextVersion}} milestones](https://github.com/galaxyproject/galaxy/pulls?q=is%3Apr+is%3Aclosed+base%3Arelease_{{.Version}}+is%3Amerged+milestone%3A{{.NextVersion}})
    - [ ] Ensure release notes include all pull requests added during the freeze by re-running the release note bootstrapping:

          make release-bootstrap-history
    - [ ] Ensure previous release is merged into current. [GitHub branch comparison](https://github.com/galaxyproject/galaxy/compare/release_{{.Version}}...release_{{.PreviousVersion}})
    - [ ] Create and push release tag:

          make release-create

    - [ ] Create dev packages:

          cd packages && ./build_packages.sh

    - [ ] Create the first point release (v{{.Version}}.0) using the instructions at https://docs.galaxyproject.org/en/master/dev/create_point_release.html
    - [ ] Open PR against planemo with a pin to the new packages

- [ ] **Announce Release**

    - [ ] Verify release included in https://docs.galaxyproject.org/en/master/releases/index.html.
    - [ ] Review announcement in https://github.com/galaxyproject/galaxy/blob/dev/doc/source/releases/{{.Version}}_announce.rst.
    - [ ] Announce release on [Galaxy Hub](https://galaxyproject.org/) as a news content item. [An example](https://galaxyproject.org/news/2024-02-07-galaxy-release-23-2/).
    - [ ] Post announcement to [Galaxy Help](https://help.galaxyproject.org/). [An example](https://help.galaxyproject.org/t/release-of-galaxy-23-2/11675).
    - [ ] Announce release on Galaxy's social media accounts ([Bluesky](https://bsky.app/profile/galaxyproject.bsky.social), [Mastodon](https://mstdn.science/@galaxyproject), [LinkedIn](https://linkedin.com/company/galaxy-project)).
    - [ ] Email announcement to [galaxy-dev](http://dev.list.galaxyproject.org/) and [galaxy-announce](http://announce.list.galaxyproject.org/) @lists.galaxyproject.org. [An example](https://lists.galaxyproject.org/archives/list/galaxy-announce@lists.galaxyproject.org/thread/ISB7ZNBDY3LQMC2KALGPVQ3DEJTH657Q/).
    - [ ] Adjust http://getgalaxy.org text and links to match current master branch by opening a PR at https://github.com/galaxyproject/galaxy-hub/

- [ ] **Prepare for next release**

    - [ ] Close milestone ` + "``{{.Version}}``" + ` and ensure milestone ` + "``{{.NextVersion}}``" + ` exists.
    - [ ] Create release issue for next version ` + "``make release-issue``" + `.
    - [ ] Schedule committer meeting to discuss re-alignment of priorities.
    - [ ] Close this issue.
`

func render(name, text string, data any) string {
	tmpl := template.Must(template.New(name).Parse(text))
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		panic(err)
	}
	return b.String()
}

// ReleaseNotes renders the curated notes skeleton for a release, with one
// grouped anchor per area label spliced in ahead of the generic
// enhancement and bug anchors.
func ReleaseNotes(release version.Version) string {
	var enhancementTargets, bugTargets []string
	for _, gt := range GroupedTags {
		enhancementTargets = append(enhancementTargets, ".. enhancement_tag_"+gt.Tag)
		bugTargets = append(bugTargets, ".. bug_tag_"+gt.Tag)
	}
	text := releaseNotesTemplate
	text = strings.Replace(text, ".. enhancement", strings.Join(enhancementTargets, "\n\n")+"\n\n.. enhancement", 1)
	text = strings.Replace(text, ".. bug", strings.Join(bugTargets, "\n\n")+"\n\n.. bug", 1)
	return render("release_notes", text, struct{ Release string }{release.String()})
}

type announceParams struct {
	MonthName string
	Year      int
	Release   string
}

// Announce renders the developer announcement skeleton for a release.
func Announce(release version.Version) string {
	return render("announce", announceTemplate, announceParams{
		MonthName: release.ReleaseMonth().String(),
		Year:      release.Major(),
		Release:   release.String(),
	})
}

// AnnounceUser renders the user-facing announcement skeleton for a release.
func AnnounceUser(release version.Version) string {
	return render("announce_user", announceUserTemplate, announceParams{
		MonthName: release.ReleaseMonth().String(),
		Year:      release.Major(),
		Release:   release.String(),
	})
}

type nextAnnounceParams struct {
	MonthName   string
	Year        int
	Release     string
	FreezeDate  string
	ReleaseDate string
}

// NextAnnounce renders the schedule placeholder announcement for the
// release that follows the given one.
func NextAnnounce(release version.Version) (next version.Version, contents string) {
	next = release.NextRelease()
	freeze, final := next.ReleaseDates()
	contents = render("next_announce", nextAnnounceTemplate, nextAnnounceParams{
		MonthName:   next.ReleaseMonth().String(),
		Year:        next.Major(),
		Release:     next.String(),
		FreezeDate:  freeze.Format("2006-01-02"),
		ReleaseDate: final.Format("2006-01-02"),
	})
	return next, contents
}

type releaseIssueParams struct {
	Version         string
	NextVersion     string
	PreviousVersion string
	FreezeDate      string
}

// ReleaseIssue renders the release checklist issue body for a release.
func ReleaseIssue(release, previous version.Version) string {
	freeze, _ := release.ReleaseDates()
	return render("release_issue", releaseIssueTemplate, releaseIssueParams{
		Version:         release.String(),
		NextVersion:     release.NextRelease().String(),
		PreviousVersion: previous.String(),
		FreezeDate:      freeze.Format("2006-01-02"),
	})
}

// ReleaseIssueTitle is the title used for release checklist issues; open
// issues matching it are excluded from blocking-issue checks.
func ReleaseIssueTitle(release version.Version) string {
	return fmt.Sprintf("Publication of Galaxy Release v %s", release.String())
}
